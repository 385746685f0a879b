package sim

import (
	"fmt"

	"github.com/sepsim/sepsim/sim/constraints"
	"github.com/sepsim/sepsim/sim/control"
	"github.com/sepsim/sepsim/sim/physics"
)

// TankConfig describes one vessel of the plant.
type TankConfig struct {
	ID         string      `yaml:"id"`
	CapacityM3 float64     `yaml:"capacityM3"`
	DiameterM  float64     `yaml:"diameterM"`
	HeightM    float64     `yaml:"heightM"`
	LevelPct   float64     `yaml:"levelPct"`
	TempC      float64     `yaml:"tempC"`
	Comp       Composition `yaml:"composition"`
	Thresholds Thresholds  `yaml:"thresholds"`
	Heated     bool        `yaml:"heated"`
	Agitated   bool        `yaml:"agitated"`
	Vertical   bool        `yaml:"vertical"`
}

// PumpConfig describes a transfer pump.
type PumpConfig struct {
	ID         string   `yaml:"id"`
	Kind       PumpKind `yaml:"kind"`
	MaxFlowM3h float64  `yaml:"maxFlowM3h"`
	MaxHeadM   float64  `yaml:"maxHeadM"`
}

// ValveConfig describes an isolation valve.
type ValveConfig struct {
	ID       string   `yaml:"id"`
	FailSafe FailSafe `yaml:"failSafe"`
}

// RouteConfig wires a source to a destination through a pump and valves.
// Dest may name a tank or the separator.
type RouteConfig struct {
	ID       string   `yaml:"id"`
	Source   string   `yaml:"source"`
	Dest     string   `yaml:"dest"`
	PumpID   string   `yaml:"pump"`
	ValveIDs []string `yaml:"valves"`
}

// HeaterConfig describes a tank heater. With Thermostat false the heater's
// duty is expected to be driven by a heater-temp control loop.
type HeaterConfig struct {
	ID         string  `yaml:"id"`
	TankID     string  `yaml:"tank"`
	MaxDutyKW  float64 `yaml:"maxDutyKW"`
	SetpointC  float64 `yaml:"setpointC"`
	Thermostat bool    `yaml:"thermostat"`
}

// PSDConfig holds the decile diameters of the feed solids distribution.
type PSDConfig struct {
	D10Micron float64 `yaml:"d10Micron"`
	D50Micron float64 `yaml:"d50Micron"`
	D90Micron float64 `yaml:"d90Micron"`
}

func (p PSDConfig) psd() physics.PSD {
	return physics.PSD{D10: p.D10Micron, D50: p.D50Micron, D90: p.D90Micron}
}

// SeparatorConfig describes the decanter centrifuge, its geometry, the feed
// material properties the physics needs, and the three product tanks.
type SeparatorConfig struct {
	ID               string  `yaml:"id"`
	BowlRadiusM      float64 `yaml:"bowlRadiusM"`
	PondDepthM       float64 `yaml:"pondDepthM"`
	ClarifierLengthM float64 `yaml:"clarifierLengthM"`
	DesignFlowM3h    float64 `yaml:"designFlowM3h"`
	SpeedRPM         float64 `yaml:"speedRPM"`
	DiffSpeedRPM     float64 `yaml:"diffSpeedRPM"`

	CentrateTank string `yaml:"centrateTank"`
	CakeTank     string `yaml:"cakeTank"`
	OilTank      string `yaml:"oilTank"`

	SolidsDensityKgM3   float64   `yaml:"solidsDensityKgM3"`
	SolidsPSD           PSDConfig `yaml:"solidsPSD"`
	OilDensity15KgM3    float64   `yaml:"oilDensity15KgM3"`
	OilDropletD50Micron float64   `yaml:"oilDropletD50Micron"`
	CakeMoistureFrac    float64   `yaml:"cakeMoistureFrac"`
	SensorNoisePct      float64   `yaml:"sensorNoisePct"`
}

// FeedConfig describes the raw inflow arriving from upstream.
type FeedConfig struct {
	TankID   string      `yaml:"tank"`
	RateM3h  float64     `yaml:"rateM3h"`
	TempC    float64     `yaml:"tempC"`
	Comp     Composition `yaml:"composition"`
	NoisePct float64     `yaml:"noisePct"`
}

// LoopKind selects what a control loop measures and actuates.
type LoopKind string

const (
	// LoopHeaterTemp reads the heated tank's temperature and drives the
	// heater duty. Target names a heater.
	LoopHeaterTemp LoopKind = "heater-temp"
	// LoopFeedFlow reads a route's delivered flow and drives the route's
	// pump throughput. Target names a route.
	LoopFeedFlow LoopKind = "feed-flow"
)

// TuningConfig mirrors control.Config with yaml tags.
type TuningConfig struct {
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	Kd          float64 `yaml:"kd"`
	OPMin       float64 `yaml:"opMin"`
	OPMax       float64 `yaml:"opMax"`
	SPMin       float64 `yaml:"spMin"`
	SPMax       float64 `yaml:"spMax"`
	OPRateLimit float64 `yaml:"opRateLimit"`
	SPRateLimit float64 `yaml:"spRateLimit"`
	DerivFilter float64 `yaml:"derivFilter"`
}

func (t TuningConfig) controlConfig() control.Config {
	return control.Config{
		Kp: t.Kp, Ki: t.Ki, Kd: t.Kd,
		OPMin: t.OPMin, OPMax: t.OPMax,
		SPMin: t.SPMin, SPMax: t.SPMax,
		OPRateLimit: t.OPRateLimit, SPRateLimit: t.SPRateLimit,
		DerivFilter: t.DerivFilter,
	}
}

// LoopConfig declares one PID loop.
type LoopConfig struct {
	Tag    string       `yaml:"tag"`
	Kind   LoopKind     `yaml:"kind"`
	Target string       `yaml:"target"`
	SP     float64      `yaml:"sp"`
	Mode   control.Mode `yaml:"mode"`
	Tuning TuningConfig `yaml:"tuning"`
}

// CostConfig holds the unit prices for the cost accounting.
type CostConfig struct {
	PowerPerKWh        float64 `yaml:"powerPerKWh"`
	DisposalPerTonne   float64 `yaml:"disposalPerTonne"`
	MaintenancePerHour float64 `yaml:"maintenancePerHour"`
	OilCreditPerM3     float64 `yaml:"oilCreditPerM3"`
}

// PlantConfig is the complete description of a plant: vessels, machines,
// routes, the separator, control loops, protection limits and prices.
type PlantConfig struct {
	Seed      int64               `yaml:"seed"`
	Tanks     []TankConfig        `yaml:"tanks"`
	Pumps     []PumpConfig        `yaml:"pumps"`
	Valves    []ValveConfig       `yaml:"valves"`
	Routes    []RouteConfig       `yaml:"routes"`
	Heaters   []HeaterConfig      `yaml:"heaters"`
	Separator SeparatorConfig     `yaml:"separator"`
	Feed      FeedConfig          `yaml:"feed"`
	Loops     []LoopConfig        `yaml:"loops"`
	Limits    constraints.Limits  `yaml:"limits"`
	Costs     CostConfig          `yaml:"costs"`
	Chemicals []ChemicalTreatment `yaml:"chemicals"`
}

// Validate checks referential integrity and physical plausibility. It is
// called by New; loaders may call it earlier for friendlier errors.
func (c *PlantConfig) Validate() error {
	if len(c.Tanks) == 0 {
		return fmt.Errorf("config: at least one tank required")
	}
	tanks := map[string]bool{}
	for _, t := range c.Tanks {
		if t.ID == "" {
			return fmt.Errorf("config: tank with empty id")
		}
		if tanks[t.ID] {
			return fmt.Errorf("config: duplicate tank id %q", t.ID)
		}
		tanks[t.ID] = true
		if t.CapacityM3 <= 0 {
			return fmt.Errorf("config: tank %s: capacityM3 must be > 0, got %v", t.ID, t.CapacityM3)
		}
		th := t.Thresholds
		if !(th.LowLowPct <= th.LowPct && th.LowPct < th.HighPct && th.HighPct <= th.HighHighPct) {
			return fmt.Errorf("config: tank %s: thresholds must be ordered LL <= L < H <= HH", t.ID)
		}
		if t.LevelPct < 0 || t.LevelPct > 100 {
			return fmt.Errorf("config: tank %s: levelPct must be in [0,100], got %v", t.ID, t.LevelPct)
		}
	}
	pumps := map[string]bool{}
	for _, p := range c.Pumps {
		if pumps[p.ID] {
			return fmt.Errorf("config: duplicate pump id %q", p.ID)
		}
		pumps[p.ID] = true
		if p.MaxFlowM3h <= 0 {
			return fmt.Errorf("config: pump %s: maxFlowM3h must be > 0", p.ID)
		}
		if p.Kind != PumpCentrifugal && p.Kind != PumpProgressiveCavity {
			return fmt.Errorf("config: pump %s: unknown kind %q", p.ID, p.Kind)
		}
	}
	valves := map[string]bool{}
	for _, v := range c.Valves {
		if valves[v.ID] {
			return fmt.Errorf("config: duplicate valve id %q", v.ID)
		}
		valves[v.ID] = true
		if v.FailSafe != FailSafeOpen && v.FailSafe != FailSafeClosed {
			return fmt.Errorf("config: valve %s: unknown failSafe %q", v.ID, v.FailSafe)
		}
	}
	routes := map[string]bool{}
	for _, r := range c.Routes {
		if routes[r.ID] {
			return fmt.Errorf("config: duplicate route id %q", r.ID)
		}
		routes[r.ID] = true
		if !tanks[r.Source] {
			return fmt.Errorf("config: route %s: unknown source tank %q", r.ID, r.Source)
		}
		if !tanks[r.Dest] && r.Dest != c.Separator.ID {
			return fmt.Errorf("config: route %s: unknown dest %q", r.ID, r.Dest)
		}
		if !pumps[r.PumpID] {
			return fmt.Errorf("config: route %s: unknown pump %q", r.ID, r.PumpID)
		}
		for _, v := range r.ValveIDs {
			if !valves[v] {
				return fmt.Errorf("config: route %s: unknown valve %q", r.ID, v)
			}
		}
	}
	for _, h := range c.Heaters {
		if !tanks[h.TankID] {
			return fmt.Errorf("config: heater %s: unknown tank %q", h.ID, h.TankID)
		}
		if h.MaxDutyKW <= 0 {
			return fmt.Errorf("config: heater %s: maxDutyKW must be > 0", h.ID)
		}
	}
	s := &c.Separator
	if s.ID != "" {
		if s.BowlRadiusM <= 0 || s.ClarifierLengthM <= 0 {
			return fmt.Errorf("config: separator %s: bowl radius and clarifier length must be > 0", s.ID)
		}
		if s.PondDepthM <= 0 || s.PondDepthM >= s.BowlRadiusM {
			return fmt.Errorf("config: separator %s: pondDepthM must be in (0, bowlRadiusM)", s.ID)
		}
		if s.CakeMoistureFrac < 0 || s.CakeMoistureFrac >= 1 {
			return fmt.Errorf("config: separator %s: cakeMoistureFrac must be in [0,1)", s.ID)
		}
		for _, dep := range []string{s.CentrateTank, s.CakeTank, s.OilTank} {
			if !tanks[dep] {
				return fmt.Errorf("config: separator %s: unknown product tank %q", s.ID, dep)
			}
		}
	}
	if c.Feed.TankID != "" && !tanks[c.Feed.TankID] {
		return fmt.Errorf("config: feed: unknown tank %q", c.Feed.TankID)
	}
	for _, l := range c.Loops {
		switch l.Kind {
		case LoopHeaterTemp:
			found := false
			for _, h := range c.Heaters {
				if h.ID == l.Target {
					found = true
				}
			}
			if !found {
				return fmt.Errorf("config: loop %s: unknown heater %q", l.Tag, l.Target)
			}
		case LoopFeedFlow:
			if !routes[l.Target] {
				return fmt.Errorf("config: loop %s: unknown route %q", l.Tag, l.Target)
			}
		default:
			return fmt.Errorf("config: loop %s: unknown kind %q", l.Tag, l.Kind)
		}
		if l.Tuning.OPMax <= l.Tuning.OPMin {
			return fmt.Errorf("config: loop %s: opMax must exceed opMin", l.Tag)
		}
	}
	for _, ch := range c.Chemicals {
		if err := ch.validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// DefaultPlantConfig returns a complete single-train plant: a heated feed
// tank ahead of a decanter centrifuge, product tanks for centrate, cake and
// oil, a centrate recycle route, and temperature plus feed-flow control.
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		Seed: 1,
		Tanks: []TankConfig{
			{
				ID: "T-101", CapacityM3: 100, DiameterM: 5, HeightM: 6,
				LevelPct: 40, TempC: 65,
				Comp:       Composition{Water: 0.95, Oil: 0.03, Solids: 0.02},
				Thresholds: Thresholds{LowLowPct: 5, LowPct: 15, HighPct: 85, HighHighPct: 95},
				Heated:     true, Vertical: true,
			},
			{
				ID: "T-201", CapacityM3: 80, DiameterM: 4.5, HeightM: 5.5,
				LevelPct: 10, TempC: 75,
				Comp:       Composition{Water: 0.999, Oil: 0.001},
				Thresholds: Thresholds{LowLowPct: 5, LowPct: 15, HighPct: 85, HighHighPct: 95},
				Vertical:   true,
			},
			{
				ID: "T-301", CapacityM3: 25, DiameterM: 3, HeightM: 4,
				LevelPct: 5, TempC: 60,
				Comp:       Composition{Water: 0.35, Solids: 0.65},
				Thresholds: Thresholds{LowLowPct: 0, LowPct: 0, HighPct: 80, HighHighPct: 90},
			},
			{
				ID: "T-401", CapacityM3: 30, DiameterM: 3, HeightM: 4.5,
				LevelPct: 10, TempC: 70,
				Comp:       Composition{Water: 0.02, Oil: 0.98},
				Thresholds: Thresholds{LowLowPct: 0, LowPct: 2, HighPct: 85, HighHighPct: 95},
				Vertical:   true,
			},
		},
		Pumps: []PumpConfig{
			{ID: "P-101", Kind: PumpProgressiveCavity, MaxFlowM3h: 30, MaxHeadM: 40},
			{ID: "P-201", Kind: PumpCentrifugal, MaxFlowM3h: 25, MaxHeadM: 30},
		},
		Valves: []ValveConfig{
			{ID: "V-101", FailSafe: FailSafeClosed},
			{ID: "V-102", FailSafe: FailSafeClosed},
			{ID: "V-201", FailSafe: FailSafeClosed},
		},
		Routes: []RouteConfig{
			{ID: "R-101", Source: "T-101", Dest: "SEP-101", PumpID: "P-101", ValveIDs: []string{"V-101", "V-102"}},
			{ID: "R-201", Source: "T-201", Dest: "T-101", PumpID: "P-201", ValveIDs: []string{"V-201"}},
		},
		Heaters: []HeaterConfig{
			{ID: "H-101", TankID: "T-101", MaxDutyKW: 400, SetpointC: 80},
		},
		Separator: SeparatorConfig{
			ID: "SEP-101", BowlRadiusM: 0.25, PondDepthM: 0.05, ClarifierLengthM: 1.2,
			DesignFlowM3h: 20, SpeedRPM: 3000, DiffSpeedRPM: 12,
			CentrateTank: "T-201", CakeTank: "T-301", OilTank: "T-401",
			SolidsDensityKgM3:   2650,
			SolidsPSD:           PSDConfig{D10Micron: 5, D50Micron: 25, D90Micron: 120},
			OilDensity15KgM3:    890,
			OilDropletD50Micron: 120,
			CakeMoistureFrac:    0.35,
			SensorNoisePct:      0.5,
		},
		Feed: FeedConfig{
			TankID: "T-101", RateM3h: 15, TempC: 65,
			Comp:     Composition{Water: 0.95, Oil: 0.03, Solids: 0.02},
			NoisePct: 2,
		},
		Loops: []LoopConfig{
			{
				Tag: "TC-101", Kind: LoopHeaterTemp, Target: "H-101",
				SP: 80, Mode: control.ModeAuto,
				Tuning: TuningConfig{
					Kp: 4, Ki: 0.08,
					OPMin: 0, OPMax: 100, SPMin: 40, SPMax: 95,
					OPRateLimit: 5, DerivFilter: 0.1,
				},
			},
			{
				Tag: "FC-101", Kind: LoopFeedFlow, Target: "R-101",
				SP: 18, Mode: control.ModeAuto,
				Tuning: TuningConfig{
					Kp: 2.5, Ki: 0.5,
					OPMin: 0, OPMax: 100, SPMin: 0, SPMax: 30,
					OPRateLimit: 10, DerivFilter: 0.1,
				},
			},
		},
		Limits: constraints.DefaultLimits(),
		Costs: CostConfig{
			PowerPerKWh:        0.12,
			DisposalPerTonne:   85,
			MaintenancePerHour: 6.5,
			OilCreditPerM3:     450,
		},
		Chemicals: []ChemicalTreatment{
			{Kind: ChemicalDemulsifier, Name: "EB-2040", DoseRatePPM: 15, CostPerKg: 4.8},
			{Kind: ChemicalFlocculant, Name: "PF-311", DoseRatePPM: 3, CostPerKg: 6.2},
		},
	}
}
