package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func waterAt25() FluidProps {
	return FluidProps{
		Density:   Measured(997, "kg/m3"),
		Viscosity: Measured(0.00089, "Pa·s"),
	}
}

// TestSettlingVelocity_SmallDroplet_StokesRange verifies the Stokes result
// for a droplet safely inside the creeping-flow regime.
func TestSettlingVelocity_SmallDroplet_StokesRange(t *testing.T) {
	// GIVEN a 30 µm oil droplet (850 kg/m3) in water at 25 °C
	oil := Measured(850, "kg/m3")

	// WHEN the Stokes velocity is computed
	vt := SettlingVelocity(30, oil, waterAt25())

	// THEN vt = g·d²·|Δρ|/(18µ) ≈ 8.1e-5 m/s, in the 1e-5..1e-4 band
	if vt.Value <= 0 {
		t.Fatalf("SettlingVelocity = %v, want > 0", vt.Value)
	}
	if vt.Value < 1e-5 || vt.Value > 1e-4 {
		t.Errorf("SettlingVelocity = %g m/s, want within [1e-5, 1e-4]", vt.Value)
	}
}

// TestSettlingVelocity_LargeDroplet_PositiveAndBounded covers the 150 µm
// reference case: still positive, millimetres per second, not metres.
func TestSettlingVelocity_LargeDroplet_PositiveAndBounded(t *testing.T) {
	oil := Measured(850, "kg/m3")

	vt := SettlingVelocity(150, oil, waterAt25())

	if vt.Value <= 0 {
		t.Fatalf("SettlingVelocity = %v, want > 0", vt.Value)
	}
	if vt.Value > 1e-2 {
		t.Errorf("SettlingVelocity = %g m/s, implausibly fast for 150 µm", vt.Value)
	}
	// Exact Stokes value for these inputs is 2.03e-3 m/s.
	assert.InDelta(t, 2.03e-3, vt.Value, 0.1e-3)
}

func TestSettlingVelocity_PropagatesConfidence(t *testing.T) {
	// GIVEN a particle density known at only 70% confidence
	solids := Assumed(2650, "kg/m3", 70, "design basis sand density")

	vt := SettlingVelocity(30, solids, waterAt25())

	// THEN confidence = min(inputs)·derate = 70·0.9 = 63
	assert.Equal(t, SourceModeled, vt.Source)
	assert.InDelta(t, 63.0, vt.Confidence, 1e-9)
}

func TestSettlingVelocity_InvalidInputs_ZeroConfidence(t *testing.T) {
	oil := Measured(850, "kg/m3")

	badDiameter := SettlingVelocity(0, oil, waterAt25())
	assert.Zero(t, badDiameter.Confidence)
	assert.Zero(t, badDiameter.Value)

	badFluid := waterAt25()
	badFluid.Viscosity.Value = 0
	badVisc := SettlingVelocity(30, oil, badFluid)
	assert.Zero(t, badVisc.Confidence)
}

func TestReynoldsRegime_Boundaries(t *testing.T) {
	cases := []struct {
		re     float64
		regime Regime
		valid  bool
	}{
		{0.01, RegimeStokes, true},
		{0.0999, RegimeStokes, true},
		{0.1, RegimeOseen, true},
		{0.9, RegimeOseen, true},
		{1.0, RegimeIntermediate, true},
		{499, RegimeIntermediate, true},
		{500, RegimeNewton, false},
		{2000, RegimeNewton, false},
	}
	for _, tc := range cases {
		rc := ReynoldsRegime(tc.re)
		if rc.Regime != tc.regime {
			t.Errorf("ReynoldsRegime(%g).Regime = %s, want %s", tc.re, rc.Regime, tc.regime)
		}
		if rc.Valid != tc.valid {
			t.Errorf("ReynoldsRegime(%g).Valid = %v, want %v", tc.re, rc.Valid, tc.valid)
		}
	}
}

func TestReynoldsRegime_StokesFactorIsUnity(t *testing.T) {
	rc := ReynoldsRegime(0.05)
	assert.Equal(t, 1.0, rc.CorrectionFactor)
}

// TestReynoldsRegime_CorrectionDecreasesWithRe verifies the Schiller–Naumann
// correction is monotonically below 1 outside creeping flow.
func TestReynoldsRegime_CorrectionDecreasesWithRe(t *testing.T) {
	prev := 1.0
	for _, re := range []float64{0.2, 0.5, 2, 20, 200} {
		rc := ReynoldsRegime(re)
		if rc.CorrectionFactor >= prev {
			t.Errorf("correction at Re=%g is %g, want < %g", re, rc.CorrectionFactor, prev)
		}
		prev = rc.CorrectionFactor
	}
}

func TestCorrectedSettlingVelocity_OseenCase(t *testing.T) {
	// GIVEN the 150 µm droplet whose Stokes Re lands in the Oseen band
	oil := Measured(850, "kg/m3")

	corrected, rc := CorrectedSettlingVelocity(150, oil, waterAt25())

	if rc.Regime != RegimeOseen {
		t.Fatalf("regime = %s, want oseen (Re ≈ 0.34)", rc.Regime)
	}
	// Correction 1/(1+0.15·0.34^0.687) ≈ 0.933 applied to 2.03e-3 m/s
	assert.InDelta(t, 1.89e-3, corrected.Value, 0.08e-3)
	assert.True(t, corrected.Value < 2.03e-3)
}

func TestRiseVelocity_DenserDropletDoesNotRise(t *testing.T) {
	heavy := Measured(1200, "kg/m3")

	v := RiseVelocity(50, heavy, waterAt25())

	if v.Value != 0 {
		t.Errorf("RiseVelocity = %g, want 0 for droplet denser than carrier", v.Value)
	}
}

func TestParticleReynolds_ZeroViscosityGuard(t *testing.T) {
	fluid := waterAt25()
	fluid.Viscosity.Value = 0
	if re := ParticleReynolds(100, 1.0, fluid); re != 0 {
		t.Errorf("ParticleReynolds with zero viscosity = %g, want 0", re)
	}
}

func TestParticleReynolds_MatchesDefinition(t *testing.T) {
	fluid := waterAt25()
	re := ParticleReynolds(150, 2.03e-3, fluid)
	want := 997 * 2.03e-3 * 150e-6 / 0.00089
	if math.Abs(re-want) > 1e-9 {
		t.Errorf("ParticleReynolds = %g, want %g", re, want)
	}
}
