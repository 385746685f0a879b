package sim

import (
	"math"
	"math/rand"

	"github.com/sepsim/sepsim/sim/constraints"
	"github.com/sepsim/sepsim/sim/physics"
)

// maxOilCaptureFrac caps oil recovery: some oil always stays emulsified
// below the droplet size the bowl can take out.
const maxOilCaptureFrac = 0.98

// Separator is the decanter centrifuge. Each tick it takes the combined
// inflow of every route feeding it, runs the separation physics, and splits
// the material into centrate, cake and recovered oil. It also synthesizes
// the sensor readings the constraints evaluator watches.
type Separator struct {
	ID string

	BowlRadiusM      float64
	PondDepthM       float64
	ClarifierLengthM float64
	DesignFlowM3h    float64
	SpeedRPM         float64
	DiffSpeedRPM     float64

	// material properties of the feed
	SolidsDensityKgM3   float64
	SolidsPSD           physics.PSD
	OilDensity15KgM3    float64
	OilDropletD50Micron float64
	CakeMoistureFrac    float64

	// live process values, refreshed every fed tick
	InletFlowM3h     float64
	InletComp        Composition
	InletTempC       float64
	SolidsRemovalPct float64
	OilRecoveryPct   float64
	OutletOilPPM     float64
	SkimRateM3h      float64
	GForce           physics.Quantity
	SigmaM2          physics.Quantity
	CutSizeMicron    physics.Quantity

	// synthesized readings for the constraints evaluator
	TorqueNm        float64
	VibrationMMs    float64
	BearingTempC    float64
	MotorTempC      float64
	FeedPressureKPa float64
	PowerKW         float64
	RuntimeH        float64
	SensorNoisePct  float64

	EnergyKWh float64
}

// separatorSplit is one tick's output material, in absolute m3 for the tick.
type separatorSplit struct {
	CentrateM3   float64
	CentrateComp Composition
	CakeM3       float64
	CakeComp     Composition
	OilM3        float64
	TempC        float64
}

func (s *Separator) geometry() physics.Geometry {
	return physics.Geometry{
		BowlRadiusM:      s.BowlRadiusM,
		PondDepthM:       s.PondDepthM,
		ClarifierLengthM: s.ClarifierLengthM,
	}
}

// process separates one tick's inflow. inVolM3 is the volume delivered this
// tick; dt converts it back to a flow for the physics correlations.
func (s *Separator) process(dt, inVolM3 float64, comp Composition, tempC float64) separatorSplit {
	comp = comp.normalized()
	s.InletFlowM3h = inVolM3 * 3600 / dt
	s.InletComp = comp
	s.InletTempC = tempC

	s.GForce = physics.GForce(s.SpeedRPM, s.BowlRadiusM)
	s.SigmaM2 = physics.SigmaFactor(s.SpeedRPM, s.geometry())

	fluid := physics.FluidProps{
		Density:   physics.WaterDensity(tempC),
		Viscosity: physics.Viscosity(tempC, comp.Solids*100),
	}
	particle := physics.ParticleProps{
		Density: physics.Measured(s.SolidsDensityKgM3, "kg/m3"),
		PSD:     s.SolidsPSD,
	}

	s.CutSizeMicron = physics.CriticalParticleSize(s.InletFlowM3h, s.SigmaM2, fluid, particle)
	removal := physics.SolidsRemoval(s.CutSizeMicron.Value, s.SolidsPSD)
	if s.CutSizeMicron.Confidence == 0 {
		removal = physics.Invalid("%", "removal undefined: invalid cut size")
	}
	s.SolidsRemovalPct = removal.Value

	capture := s.oilCaptureFrac(fluid, tempC)
	s.OilRecoveryPct = capture * 100

	waterIn := inVolM3 * comp.Water
	oilIn := inVolM3 * comp.Oil
	solidsIn := inVolM3 * comp.Solids

	solidsOut := solidsIn * removal.Value / 100
	oilOut := oilIn * capture

	// Cake carries entrained liquor at the configured moisture, taken from
	// the water phase. With very wet feeds the entrainment clamp never
	// binds; with near-dry feeds it keeps water non-negative.
	cakeM3 := 0.0
	entrained := 0.0
	if solidsOut > 0 && s.CakeMoistureFrac < 1 {
		cakeM3 = solidsOut / (1 - s.CakeMoistureFrac)
		entrained = cakeM3 - solidsOut
		if entrained > waterIn {
			entrained = waterIn
			cakeM3 = solidsOut + entrained
		}
	}

	centrateM3 := inVolM3 - cakeM3 - oilOut
	if centrateM3 < 0 {
		centrateM3 = 0
	}
	centrate := Composition{
		Water:  waterIn - entrained,
		Oil:    oilIn - oilOut,
		Solids: solidsIn - solidsOut,
	}.normalized()

	cakeComp := Composition{Water: 1}
	if cakeM3 > 0 {
		cakeComp = Composition{Water: entrained / cakeM3, Solids: solidsOut / cakeM3}.normalized()
	}

	s.OutletOilPPM = outletOilPPM(centrate, tempC, s.OilDensity15KgM3, s.SolidsDensityKgM3)
	s.SkimRateM3h = oilOut * 3600 / dt

	return separatorSplit{
		CentrateM3:   centrateM3,
		CentrateComp: centrate,
		CakeM3:       cakeM3,
		CakeComp:     cakeComp,
		OilM3:        oilOut,
		TempC:        tempC,
	}
}

// oilCaptureFrac derives the recovered fraction of free oil from the rise
// velocity of the median droplet against the bowl's equivalent settling
// area: capture = min(cap, v_rise * sigma / Q).
func (s *Separator) oilCaptureFrac(fluid physics.FluidProps, tempC float64) float64 {
	if s.InletFlowM3h <= 0 || s.SigmaM2.Confidence == 0 {
		return 0
	}
	oilRho := physics.OilDensity(tempC, physics.Measured(s.OilDensity15KgM3, "kg/m3"))
	rise, _ := physics.CorrectedSettlingVelocity(s.OilDropletD50Micron, oilRho, fluid)
	v := math.Abs(rise.Value)
	if rise.Confidence == 0 || v <= 0 {
		return 0
	}
	qM3s := s.InletFlowM3h / 3600
	capture := v * s.SigmaM2.Value / qM3s
	if capture > maxOilCaptureFrac {
		capture = maxOilCaptureFrac
	}
	if capture < 0 {
		capture = 0
	}
	return capture
}

// outletOilPPM converts the centrate's oil volume fraction to a mass-based
// oil-in-water concentration.
func outletOilPPM(comp Composition, tempC, oilRho15, solidsRho float64) float64 {
	waterRho := physics.WaterDensity(tempC).Value
	oilRho := physics.OilDensity(tempC, physics.Measured(oilRho15, "kg/m3")).Value
	mixRho := comp.Water*waterRho + comp.Oil*oilRho + comp.Solids*solidsRho
	if mixRho <= 0 {
		return 0
	}
	return comp.Oil * oilRho / mixRho * 1e6
}

// updateSensors refreshes the synthesized condition readings from the load
// the bowl just processed. Readings carry a small configurable noise so dashboards
// look alive; zero noise gives exact reproducibility.
func (s *Separator) updateSensors(dt float64, rng *rand.Rand) {
	solidsKgH := s.InletFlowM3h * s.InletComp.Solids * s.SolidsDensityKgM3

	torque := 80 + 0.35*solidsKgH + 2.5*s.DiffSpeedRPM
	vibration := 0.6 + 2.4*math.Pow(s.SpeedRPM/3000, 2) + 0.3*solidsKgH/1000
	if s.SensorNoisePct > 0 {
		torque *= 1 + s.SensorNoisePct/100*rng.NormFloat64()
		vibration *= 1 + s.SensorNoisePct/100*rng.NormFloat64()
	}
	s.TorqueNm = torque
	s.VibrationMMs = vibration

	// Bearing and motor temperatures approach their load-dependent
	// equilibria first-order, time constant on the order of hours.
	bearingTarget := 45 + 25*(s.SpeedRPM/3000) + 0.005*solidsKgH
	motorTarget := 50 + 0.35*s.PowerKW
	s.BearingTempC += (bearingTarget - s.BearingTempC) * 0.5 * dt / 3600
	s.MotorTempC += (motorTarget - s.MotorTempC) * 0.5 * dt / 3600

	s.FeedPressureKPa = 101 + 8*s.InletFlowM3h
	s.PowerKW = 12 + 1.65*s.InletFlowM3h + 7*math.Pow(s.SpeedRPM/3000, 3)
	if s.SpeedRPM > 0 {
		s.RuntimeH += dt / 3600
		s.EnergyKWh += s.PowerKW * dt / 3600
	}
}

// equipmentState packages the current readings for the constraints
// evaluator.
func (s *Separator) equipmentState() constraints.EquipmentState {
	return constraints.EquipmentState{
		SpeedRPM:        s.SpeedRPM,
		TorqueNm:        s.TorqueNm,
		VibrationMMs:    s.VibrationMMs,
		BearingTempC:    s.BearingTempC,
		MotorTempC:      s.MotorTempC,
		FeedRateM3h:     s.InletFlowM3h,
		FeedTempC:       s.InletTempC,
		FeedPressureKPa: s.FeedPressureKPa,
		PondDepthM:      s.PondDepthM,
		DiffSpeedRPM:    s.DiffSpeedRPM,
		PowerKW:         s.PowerKW,
		RuntimeH:        s.RuntimeH,
	}
}
