package physics

import "math"

// FluidProps bundles the carrier-fluid properties a separation calculation
// needs. Both carry provenance: in a running plant the density may be a
// measurement while the viscosity is almost always a model output.
type FluidProps struct {
	Density   Quantity // kg/m3
	Viscosity Quantity // Pa·s
}

// ParticleProps describes the dispersed phase entering the separator.
// Diameters are in µm. D10/D50/D90 parameterize the particle size
// distribution; density refers to the particle (or droplet) phase.
type ParticleProps struct {
	Density Quantity // kg/m3
	PSD     PSD
}

// PSD is a log-normal particle size distribution summarized by its decile
// diameters in µm (d10 < d50 < d90).
type PSD struct {
	D10 float64 // µm
	D50 float64 // µm
	D90 float64 // µm
}

// WaterViscosity returns the dynamic viscosity of water at tempC using the
// Vogel form of the Arrhenius correlation, µ = A·10^(B/(T−C)) with T in
// kelvin. Accurate to a few percent over 0–90 °C (8.90e-4 Pa·s at 25 °C).
func WaterViscosity(tempC float64) Quantity {
	tK := tempC + 273.15
	mu := 2.414e-5 * math.Pow(10, 247.8/(tK-140.0))
	q := derive(mu, "Pa·s", derateViscosity, "Vogel correlation for water")
	q.Source = SourceCalculated
	return q
}

// Viscosity returns the effective suspension viscosity: the Arrhenius carrier
// correlation corrected for suspended solids with an Einstein-type series,
// µ_eff = µ0·(1 + 2.5·φ + 6.2·φ²), where φ is the solids volume fraction.
// solidsPct is the solids content in volume percent.
func Viscosity(tempC, solidsPct float64) Quantity {
	carrier := WaterViscosity(tempC)
	phi := solidsPct / 100.0
	if phi < 0 {
		phi = 0
	}
	factor := 1.0 + 2.5*phi + 6.2*phi*phi
	return derive(carrier.Value*factor, "Pa·s", derateViscosity,
		"Arrhenius carrier + Einstein solids correction", carrier)
}

// WaterDensity returns the density of water at tempC from a quadratic fit
// anchored at 999.7 kg/m3 (10 °C). Engineering-grade for 0–90 °C.
func WaterDensity(tempC float64) Quantity {
	rho := 999.7 - 0.10*(tempC-10.0) - 0.0036*(tempC-10.0)*(tempC-10.0)
	q := derive(rho, "kg/m3", derateDensity, "quadratic fit to water density")
	q.Source = SourceCalculated
	return q
}

// OilDensity returns the density of the oil phase at tempC given its
// reference density at 15 °C, using a linear thermal expansion coefficient
// of 6.5e-4 1/K typical of light crude fractions.
func OilDensity(tempC float64, rho15 Quantity) Quantity {
	rho := rho15.Value * (1.0 - 6.5e-4*(tempC-15.0))
	return derive(rho, "kg/m3", derateDensity, "linear thermal expansion from 15 °C reference", rho15)
}
