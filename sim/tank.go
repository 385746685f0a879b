package sim

import "math"

// Composition is the volume-fraction split of a tank or stream. Fractions
// are kept normalized to sum to 1 within 1e-6.
type Composition struct {
	Water  float64 `yaml:"water"`
	Oil    float64 `yaml:"oil"`
	Solids float64 `yaml:"solids"`
}

// Sum returns the raw fraction total.
func (c Composition) Sum() float64 {
	return c.Water + c.Oil + c.Solids
}

// normalized rescales the fractions to sum to exactly 1. A zero composition
// normalizes to pure water so a drained tank refilling stays well-defined.
func (c Composition) normalized() Composition {
	s := c.Sum()
	if s <= 0 {
		return Composition{Water: 1}
	}
	return Composition{Water: c.Water / s, Oil: c.Oil / s, Solids: c.Solids / s}
}

// Thresholds are the four level alarm limits of a tank, in percent.
// Invariant: LowLowPct <= LowPct < HighPct <= HighHighPct.
type Thresholds struct {
	LowLowPct   float64 `yaml:"low_low_pct"`
	LowPct      float64 `yaml:"low_pct"`
	HighPct     float64 `yaml:"high_pct"`
	HighHighPct float64 `yaml:"high_high_pct"`
}

// levelBand classifies a level against the thresholds for the alarm scan.
type levelBand int

const (
	bandNormal levelBand = iota
	bandLow
	bandLowLow
	bandHigh
	bandHighHigh
)

// Tank is one vessel in the flow network. Created at plant initialization,
// mutated every tick, never destroyed during a run.
type Tank struct {
	ID         string
	CapacityM3 float64
	DiameterM  float64
	HeightM    float64

	LevelPct float64
	VolumeM3 float64
	TempC    float64
	Comp     Composition

	Thresholds Thresholds
	Heated     bool
	Agitated   bool
	Vertical   bool
}

// Richardson-Zaki exponent for hindered settling.
const richardsonZakiExp = 4.65

// settleRatePerM converts a settling distance per tick (velocity * dt) into
// the fraction of the suspended phase that clears. Calibrated against the
// reference unit's clarification behavior; see DESIGN.md before changing.
const settleRatePerM = 3.0

// band classifies the current level.
func (t *Tank) band() levelBand {
	switch {
	case t.LevelPct >= t.Thresholds.HighHighPct:
		return bandHighHigh
	case t.LevelPct <= t.Thresholds.LowLowPct:
		return bandLowLow
	case t.LevelPct >= t.Thresholds.HighPct:
		return bandHigh
	case t.LevelPct <= t.Thresholds.LowPct:
		return bandLow
	}
	return bandNormal
}

func (t *Tank) freeM3() float64 {
	free := t.CapacityM3 - t.VolumeM3
	if free < 0 {
		return 0
	}
	return free
}

func (t *Tank) setVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > t.CapacityM3 {
		v = t.CapacityM3
	}
	t.VolumeM3 = v
	t.LevelPct = v / t.CapacityM3 * 100
}

// addVolume blends incoming material into the tank and returns the volume
// actually accepted, clamped to the remaining capacity.
func (t *Tank) addVolume(v float64, comp Composition, tempC float64) float64 {
	if v <= 0 {
		return 0
	}
	accepted := math.Min(v, t.freeM3())
	if accepted <= 0 {
		return 0
	}
	newVol := t.VolumeM3 + accepted
	comp = comp.normalized()
	t.Comp = Composition{
		Water:  (t.Comp.Water*t.VolumeM3 + comp.Water*accepted) / newVol,
		Oil:    (t.Comp.Oil*t.VolumeM3 + comp.Oil*accepted) / newVol,
		Solids: (t.Comp.Solids*t.VolumeM3 + comp.Solids*accepted) / newVol,
	}.normalized()
	t.TempC = (t.TempC*t.VolumeM3 + tempC*accepted) / newVol
	t.setVolume(newVol)
	return accepted
}

// removeVolume drains material at the tank's current composition and
// temperature, returning what actually left.
func (t *Tank) removeVolume(v float64) (float64, Composition, float64) {
	if v <= 0 || t.VolumeM3 <= 0 {
		return 0, t.Comp, t.TempC
	}
	drained := math.Min(v, t.VolumeM3)
	t.setVolume(t.VolumeM3 - drained)
	return drained, t.Comp, t.TempC
}

// settle nudges an unagitated vertical tank toward a clarified state: free
// oil rises out of suspension and solids drop, both slowed by the
// Richardson-Zaki hindered-settling factor. This is a lumped approximation
// of phase separation, deliberately proportional to dt times the phase
// velocity, not a tracked interface model.
func (t *Tank) settle(dt, oilRiseMS, solidsFallMS float64) {
	if t.Agitated || !t.Vertical || t.VolumeM3 <= 0 {
		return
	}
	hindered := math.Pow(1-t.Comp.Oil, richardsonZakiExp)

	oilClear := clampFrac(settleRatePerM * oilRiseMS * hindered * dt)
	solidsClear := clampFrac(settleRatePerM * solidsFallMS * hindered * dt)

	cleared := t.Comp.Oil*oilClear + t.Comp.Solids*solidsClear
	t.Comp.Oil -= t.Comp.Oil * oilClear
	t.Comp.Solids -= t.Comp.Solids * solidsClear
	t.Comp.Water += cleared
	t.Comp = t.Comp.normalized()
}

// clampFrac bounds a per-tick clearing fraction so a large dt cannot
// overshoot into negative fractions.
func clampFrac(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 0.5 {
		return 0.5
	}
	return f
}
