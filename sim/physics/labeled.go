// Package physics provides the separation physics models for the sepsim kernel:
// temperature-dependent fluid properties, Stokes-law settling with Reynolds
// regime correction, and centrifuge sizing (g-force, sigma factor, critical
// particle size, PSD-based removal efficiency).
//
// Every model output is a Quantity carrying provenance (Source), a confidence
// in [0, 100], and a human-readable basis. Derived confidence is the minimum
// of the input confidences times a fixed per-model derating factor.
package physics

import "fmt"

// Source identifies how a Quantity was obtained.
type Source string

const (
	SourceMeasured   Source = "MEASURED"
	SourceCalculated Source = "CALCULATED"
	SourceModeled    Source = "MODELED"
	SourceEstimated  Source = "ESTIMATED"
	SourceAssumed    Source = "ASSUMED"
	SourceUnknown    Source = "UNKNOWN"
)

// Per-model confidence derating factors. A derived value can never be more
// trustworthy than its inputs; these scale the minimum input confidence down
// by the model's own uncertainty.
const (
	derateKinematics = 0.90 // g-force: pure kinematics
	derateStokes     = 0.90 // Stokes settling: well inside its validity range
	derateRegime     = 0.85 // drag-correlation correction
	derateSigma      = 0.85 // sigma factor: idealized bowl geometry
	derateCutSize    = 0.80 // critical particle size: compounded model error
	derateRemoval    = 0.75 // PSD removal: assumes log-normal distribution
	derateViscosity  = 0.85 // Arrhenius + Einstein solids correction
	derateDensity    = 0.90 // linear/quadratic thermal expansion fits
)

// Quantity is a value with engineering provenance. It deliberately carries
// its unit and basis so downstream consumers (KPIs, reports, alarms) can
// surface where a number came from instead of presenting model output as
// gospel.
type Quantity struct {
	Value      float64
	Unit       string
	Source     Source
	Confidence float64 // 0..100
	Basis      string
}

// String renders the quantity with its unit and provenance tag.
func (q Quantity) String() string {
	return fmt.Sprintf("%.6g %s [%s %.0f%%]", q.Value, q.Unit, q.Source, q.Confidence)
}

// Measured wraps an instrument reading at full confidence.
func Measured(value float64, unit string) Quantity {
	return Quantity{Value: value, Unit: unit, Source: SourceMeasured, Confidence: 100, Basis: "instrument reading"}
}

// Assumed wraps a design assumption with a caller-chosen confidence.
func Assumed(value float64, unit string, confidence float64, basis string) Quantity {
	return Quantity{Value: value, Unit: unit, Source: SourceAssumed, Confidence: clampConfidence(confidence), Basis: basis}
}

// Invalid returns a zero-value Quantity with confidence 0 and a basis stating
// why the calculation could not be performed. Models return this instead of
// NaN so the result stays auditable.
func Invalid(unit, basis string) Quantity {
	return Quantity{Value: 0, Unit: unit, Source: SourceUnknown, Confidence: 0, Basis: basis}
}

// derive builds a model output Quantity: source MODELED, confidence =
// min(input confidences) × derate, and the given basis.
func derive(value float64, unit string, derate float64, basis string, inputs ...Quantity) Quantity {
	return Quantity{
		Value:      value,
		Unit:       unit,
		Source:     SourceModeled,
		Confidence: clampConfidence(minConfidence(inputs) * derate),
		Basis:      basis,
	}
}

// minConfidence returns the lowest confidence among inputs, or 100 when the
// model has no Quantity inputs (pure-parameter calculations).
func minConfidence(inputs []Quantity) float64 {
	m := 100.0
	for _, in := range inputs {
		if in.Confidence < m {
			m = in.Confidence
		}
	}
	return m
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
