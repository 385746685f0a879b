// Package massbalance checks conservation of mass across the separation
// unit, independently of the simulation engine. It validates each stream,
// computes overall and per-component closures, derives separation quality
// metrics, and reports everything as graded alerts. It never corrects the
// numbers it is given: a closure error is a finding, not something to hide.
package massbalance

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// Severity grades an alert. Ordering: OK < WARNING < ALARM < FAULT.
type Severity string

const (
	SeverityOK      Severity = "OK"
	SeverityWarning Severity = "WARNING"
	SeverityAlarm   Severity = "ALARM"
	SeverityFault   Severity = "FAULT"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityAlarm:
		return 2
	case SeverityFault:
		return 3
	}
	return 0
}

// Alert codes.
const (
	CodeNoFeed           = "NO_FEED"
	CodeStreamDensity    = "STREAM_DENSITY"
	CodeStreamTemp       = "STREAM_TEMP"
	CodeComponentSum     = "COMPONENT_SUM"
	CodeFlowDensity      = "FLOW_DENSITY"
	CodeMassClosure      = "MASS_CLOSURE"
	CodeComponentClosure = "COMPONENT_CLOSURE"
	CodeCentrateSolids   = "CENTRATE_SOLIDS"
	CodeCakeMoisture     = "CAKE_MOISTURE"
	CodeOilRecovery      = "OIL_RECOVERY"
)

// Stream is one measured process stream around the separator. Component
// masses are expected to sum to TotalMassKgH within tolerance; the validator
// checks this, it does not enforce it.
type Stream struct {
	TotalMassKgH float64
	WaterKgH     float64
	OilKgH       float64
	SolidsKgH    float64
	TempC        float64
	DensityKgM3  float64
	FlowM3h      float64
}

// Input is one balance envelope: the feed in, the centrate and cake out,
// plus separately metered recovered oil.
type Input struct {
	Feed            Stream
	Centrate        Stream
	Cake            Stream
	OilRecoveredKgH float64
}

// Config carries tolerances and quality targets. Closure tolerances are in
// percentage points around 100%; sum/meter tolerances are fractions;
// warning/alarm thresholds are relative deviations from a quality target.
type Config struct {
	OverallClosureTolerance   float64
	ComponentClosureTolerance float64
	ComponentSumTolerance     float64
	FlowDensityTolerance      float64

	MinDensityKgM3 float64
	MaxDensityKgM3 float64
	MinTempC       float64
	MaxTempC       float64

	MaxCentrateSolidsPct float64
	MaxCakeMoisturePct   float64
	MinOilRecoveryPct    float64
	WarningThreshold     float64
	AlarmThreshold       float64
}

// DefaultConfig returns the tolerances used for the reference unit.
func DefaultConfig() Config {
	return Config{
		OverallClosureTolerance:   2.0,
		ComponentClosureTolerance: 10.0,
		ComponentSumTolerance:     0.001,
		FlowDensityTolerance:      0.01,
		MinDensityKgM3:            600,
		MaxDensityKgM3:            1600,
		MinTempC:                  0,
		MaxTempC:                  150,
		MaxCentrateSolidsPct:      0.5,
		MaxCakeMoisturePct:        75,
		MinOilRecoveryPct:         90,
		WarningThreshold:          0.10,
		AlarmThreshold:            0.25,
	}
}

// Alert is one graded finding.
type Alert struct {
	Severity Severity
	Code     string
	Stream   string // stream or metric the finding is about, "" for overall
	Message  string
}

// ComponentBalance is the closure of a single component across the unit.
type ComponentBalance struct {
	Component  string
	InKgH      float64
	OutKgH     float64
	ClosurePct float64
	Valid      bool
}

// Quality holds the derived separation quality metrics.
type Quality struct {
	CentrateSolidsPct float64
	CakeMoisturePct   float64
	OilRecoveryPct    float64
}

// Result is the full outcome of one balance calculation.
type Result struct {
	Input Input

	TotalInKgH        float64
	TotalOutKgH       float64
	ClosurePct        float64
	ToleranceExceeded bool

	Water  ComponentBalance
	Oil    ComponentBalance
	Solids ComponentBalance

	Quality Quality
	Alerts  []Alert
	Status  Severity
	Valid   bool

	// AuditHash is a non-cryptographic FNV-1a digest of the inputs, kept
	// stable so successive reports over the same readings can be tied
	// together in an audit trail.
	AuditHash string
}

// Calculate runs the full validation over one balance envelope.
func Calculate(in Input, cfg Config) Result {
	res := Result{
		Input:     in,
		Status:    SeverityOK,
		AuditHash: auditHash(in),
	}

	res.TotalInKgH = in.Feed.TotalMassKgH
	res.TotalOutKgH = in.Centrate.TotalMassKgH + in.Cake.TotalMassKgH + in.OilRecoveredKgH

	if res.TotalInKgH <= 0 {
		res.addAlert(SeverityFault, CodeNoFeed, "feed",
			"feed mass flow is zero or negative; balance undefined")
		res.ToleranceExceeded = true
		res.finish(cfg)
		return res
	}

	res.validateStream("feed", in.Feed, cfg)
	res.validateStream("centrate", in.Centrate, cfg)
	res.validateStream("cake", in.Cake, cfg)

	res.ClosurePct = res.TotalOutKgH / res.TotalInKgH * 100
	if math.Abs(res.ClosurePct-100) > cfg.OverallClosureTolerance {
		res.ToleranceExceeded = true
		res.addAlert(SeverityAlarm, CodeMassClosure, "",
			fmt.Sprintf("overall closure %.2f%% outside 100±%.1f%%", res.ClosurePct, cfg.OverallClosureTolerance))
	}

	res.Water = componentBalance("water", in.Feed.WaterKgH,
		in.Centrate.WaterKgH+in.Cake.WaterKgH, cfg)
	res.Oil = componentBalance("oil", in.Feed.OilKgH,
		in.Centrate.OilKgH+in.Cake.OilKgH+in.OilRecoveredKgH, cfg)
	res.Solids = componentBalance("solids", in.Feed.SolidsKgH,
		in.Centrate.SolidsKgH+in.Cake.SolidsKgH, cfg)
	for _, cb := range []ComponentBalance{res.Water, res.Oil, res.Solids} {
		if !cb.Valid {
			res.addAlert(SeverityWarning, CodeComponentClosure, cb.Component,
				fmt.Sprintf("%s closure %.2f%% outside 100±%.1f%%", cb.Component, cb.ClosurePct, cfg.ComponentClosureTolerance))
		}
	}

	res.Quality = quality(in)
	res.gradeQuality(cfg)

	res.finish(cfg)
	return res
}

func (r *Result) finish(cfg Config) {
	for _, a := range r.Alerts {
		if severityRank(a.Severity) > severityRank(r.Status) {
			r.Status = a.Severity
		}
	}
	r.Valid = severityRank(r.Status) < severityRank(SeverityAlarm) && !r.ToleranceExceeded
}

func (r *Result) addAlert(sev Severity, code, stream, msg string) {
	r.Alerts = append(r.Alerts, Alert{Severity: sev, Code: code, Stream: stream, Message: msg})
}

// validateStream checks one stream for sensor plausibility, component-sum
// consistency and flow-meter/mass-meter agreement.
func (r *Result) validateStream(name string, s Stream, cfg Config) {
	if s.DensityKgM3 < cfg.MinDensityKgM3 || s.DensityKgM3 > cfg.MaxDensityKgM3 {
		r.addAlert(SeverityAlarm, CodeStreamDensity, name,
			fmt.Sprintf("density %.1f kg/m3 outside plausible %.0f..%.0f", s.DensityKgM3, cfg.MinDensityKgM3, cfg.MaxDensityKgM3))
	}
	if s.TempC < cfg.MinTempC || s.TempC > cfg.MaxTempC {
		r.addAlert(SeverityWarning, CodeStreamTemp, name,
			fmt.Sprintf("temperature %.1f C outside plausible %.0f..%.0f", s.TempC, cfg.MinTempC, cfg.MaxTempC))
	}
	if s.TotalMassKgH <= 0 {
		return
	}
	sum := s.WaterKgH + s.OilKgH + s.SolidsKgH
	if math.Abs(sum-s.TotalMassKgH)/s.TotalMassKgH > cfg.ComponentSumTolerance {
		r.addAlert(SeverityAlarm, CodeComponentSum, name,
			fmt.Sprintf("component sum %.1f kg/h disagrees with total %.1f kg/h", sum, s.TotalMassKgH))
	}
	metered := s.FlowM3h * s.DensityKgM3
	if math.Abs(metered-s.TotalMassKgH)/s.TotalMassKgH > cfg.FlowDensityTolerance {
		r.addAlert(SeverityWarning, CodeFlowDensity, name,
			fmt.Sprintf("flow*density %.1f kg/h disagrees with total %.1f kg/h", metered, s.TotalMassKgH))
	}
}

func componentBalance(component string, in, out float64, cfg Config) ComponentBalance {
	cb := ComponentBalance{Component: component, InKgH: in, OutKgH: out}
	if in <= 0 {
		// Nothing came in: balanced only if nothing went out either.
		cb.ClosurePct = 100
		cb.Valid = out <= 0
		return cb
	}
	cb.ClosurePct = out / in * 100
	cb.Valid = math.Abs(cb.ClosurePct-100) <= cfg.ComponentClosureTolerance
	return cb
}

func quality(in Input) Quality {
	var q Quality
	if in.Centrate.TotalMassKgH > 0 {
		q.CentrateSolidsPct = in.Centrate.SolidsKgH / in.Centrate.TotalMassKgH * 100
	}
	if in.Cake.TotalMassKgH > 0 {
		q.CakeMoisturePct = in.Cake.WaterKgH / in.Cake.TotalMassKgH * 100
	}
	if in.Feed.OilKgH > 0 {
		q.OilRecoveryPct = in.OilRecoveredKgH / in.Feed.OilKgH * 100
	}
	return q
}

// gradeQuality compares each quality metric against its target and emits a
// WARNING or ALARM once the relative deviation crosses the thresholds.
func (r *Result) gradeQuality(cfg Config) {
	grade := func(deviation float64, code, msg string) {
		switch {
		case deviation > cfg.AlarmThreshold:
			r.addAlert(SeverityAlarm, code, "", msg)
		case deviation > cfg.WarningThreshold:
			r.addAlert(SeverityWarning, code, "", msg)
		}
	}
	if cfg.MaxCentrateSolidsPct > 0 {
		dev := (r.Quality.CentrateSolidsPct - cfg.MaxCentrateSolidsPct) / cfg.MaxCentrateSolidsPct
		grade(dev, CodeCentrateSolids,
			fmt.Sprintf("centrate solids %.2f%% above target %.2f%%", r.Quality.CentrateSolidsPct, cfg.MaxCentrateSolidsPct))
	}
	if cfg.MaxCakeMoisturePct > 0 {
		dev := (r.Quality.CakeMoisturePct - cfg.MaxCakeMoisturePct) / cfg.MaxCakeMoisturePct
		grade(dev, CodeCakeMoisture,
			fmt.Sprintf("cake moisture %.2f%% above target %.2f%%", r.Quality.CakeMoisturePct, cfg.MaxCakeMoisturePct))
	}
	if cfg.MinOilRecoveryPct > 0 && r.Input.Feed.OilKgH > 0 {
		dev := (cfg.MinOilRecoveryPct - r.Quality.OilRecoveryPct) / cfg.MinOilRecoveryPct
		grade(dev, CodeOilRecovery,
			fmt.Sprintf("oil recovery %.2f%% below target %.2f%%", r.Quality.OilRecoveryPct, cfg.MinOilRecoveryPct))
	}
}

// auditHash digests every input reading with 64-bit FNV-1a. Explicitly
// non-cryptographic: it ties successive reports to identical inputs, nothing
// more.
func auditHash(in Input) string {
	h := fnv.New64a()
	buf := make([]byte, 8)
	write := func(v float64) {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	for _, s := range []Stream{in.Feed, in.Centrate, in.Cake} {
		write(s.TotalMassKgH)
		write(s.WaterKgH)
		write(s.OilKgH)
		write(s.SolidsKgH)
		write(s.TempC)
		write(s.DensityKgM3)
		write(s.FlowM3h)
	}
	write(in.OilRecoveredKgH)
	return fmt.Sprintf("%016x", h.Sum64())
}
