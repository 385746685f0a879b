package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaterViscosity_At25C(t *testing.T) {
	mu := WaterViscosity(25)

	// 0.89 mPa·s at 25 °C is the handbook value.
	assert.InDelta(t, 0.00089, mu.Value, 0.00003)
	assert.Equal(t, "Pa·s", mu.Unit)
}

func TestWaterViscosity_DecreasesWithTemperature(t *testing.T) {
	prev := WaterViscosity(5).Value
	for _, temp := range []float64{20, 40, 60, 80} {
		mu := WaterViscosity(temp).Value
		if mu >= prev {
			t.Fatalf("viscosity at %g °C = %g, want < %g", temp, mu, prev)
		}
		prev = mu
	}
}

func TestViscosity_SolidsCorrection(t *testing.T) {
	// GIVEN 10 vol% solids at 25 °C
	clean := Viscosity(25, 0)
	loaded := Viscosity(25, 10)

	// THEN µ_eff/µ0 = 1 + 2.5·0.1 + 6.2·0.01 = 1.312
	assert.InDelta(t, 1.312, loaded.Value/clean.Value, 1e-6)
}

func TestViscosity_NegativeSolidsTreatedAsClean(t *testing.T) {
	assert.InDelta(t, Viscosity(25, 0).Value, Viscosity(25, -5).Value, 1e-12)
}

func TestViscosity_ConfidenceDerated(t *testing.T) {
	mu := Viscosity(25, 5)

	// Carrier correlation at 85, derated again through the solids correction.
	assert.InDelta(t, 72.25, mu.Confidence, 0.01)
	assert.Equal(t, SourceModeled, mu.Source)
}

func TestWaterDensity_At20C(t *testing.T) {
	rho := WaterDensity(20)
	assert.InDelta(t, 998.3, rho.Value, 0.5)
}

func TestWaterDensity_DecreasesAboveTen(t *testing.T) {
	prev := WaterDensity(10).Value
	for _, temp := range []float64{25, 45, 70, 90} {
		rho := WaterDensity(temp).Value
		if rho >= prev {
			t.Fatalf("density at %g °C = %g, want < %g", temp, rho, prev)
		}
		prev = rho
	}
}

func TestOilDensity_ThermalExpansion(t *testing.T) {
	ref := Measured(890, "kg/m3")

	at40 := OilDensity(40, ref)

	// 890·(1 − 6.5e-4·25) = 875.5
	assert.InDelta(t, 875.5, at40.Value, 0.1)
	// Hotter oil is lighter.
	assert.Less(t, at40.Value, OilDensity(15, ref).Value)
}

func TestQuantityString_IncludesProvenance(t *testing.T) {
	q := Measured(42.5, "m3/h")
	s := q.String()
	assert.Contains(t, s, "m3/h")
	assert.Contains(t, s, "MEASURED")
}

func TestInvalid_ZeroConfidenceAndBasis(t *testing.T) {
	q := Invalid("µm", "cut size undefined: no flow")
	assert.Zero(t, q.Value)
	assert.Zero(t, q.Confidence)
	assert.Equal(t, SourceUnknown, q.Source)
	assert.NotEmpty(t, q.Basis)
}

func TestDerive_MinConfidenceTimesDerate(t *testing.T) {
	a := Assumed(1, "x", 80, "a")
	b := Assumed(2, "x", 40, "b")

	q := derive(3, "x", 0.9, "combined", a, b)

	assert.InDelta(t, 36.0, q.Confidence, 1e-9) // min(80,40)·0.9
}
