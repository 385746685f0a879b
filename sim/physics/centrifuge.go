package physics

import "math"

// Geometry captures the decanter bowl dimensions the sigma model needs.
type Geometry struct {
	BowlRadiusM      float64 // r1, inner bowl wall radius
	PondDepthM       float64 // liquid pool depth from the bowl wall
	ClarifierLengthM float64 // effective clarification length
}

// GForce returns the centrifugal acceleration at bowlRadiusM expressed in
// multiples of gravity: g = (2π·N/60)²·r / 9.81.
func GForce(rpm, bowlRadiusM float64) Quantity {
	if rpm < 0 || bowlRadiusM <= 0 {
		return Invalid("g", "g-force undefined for negative speed or non-positive radius")
	}
	omega := 2.0 * math.Pi * rpm / 60.0
	g := omega * omega * bowlRadiusM / gravity
	q := derive(g, "g", derateKinematics, "rigid-body rotation at bowl wall")
	q.Source = SourceCalculated
	return q
}

// SigmaFactor returns the equivalent gravitational settling area of the
// bowl, Σ = 2π·ω²·L·(r1³ − r2³)/(3·g), with r2 = r1 − pond depth. Σ lets a
// centrifuge be compared against a gravity settler of the same area.
func SigmaFactor(rpm float64, geom Geometry) Quantity {
	if rpm <= 0 {
		return Invalid("m2", "sigma undefined for non-positive bowl speed")
	}
	r1 := geom.BowlRadiusM
	r2 := r1 - geom.PondDepthM
	if r1 <= 0 || r2 < 0 || r2 >= r1 || geom.ClarifierLengthM <= 0 {
		return Invalid("m2", "sigma undefined for degenerate bowl geometry")
	}
	omega := 2.0 * math.Pi * rpm / 60.0
	sigma := 2.0 * math.Pi * omega * omega * geom.ClarifierLengthM *
		(r1*r1*r1 - r2*r2*r2) / (3.0 * gravity)
	return derive(sigma, "m2", derateSigma, "cylindrical-bowl sigma theory")
}

// CriticalParticleSize returns the cut size d_c (µm) — the smallest particle
// the bowl captures at feedM3h — from d_c = sqrt(18·µ·Q / (Δρ·Σ)).
// Returns confidence 0 with a documented basis when the density difference,
// sigma, or flow make the model meaningless rather than guessing.
func CriticalParticleSize(feedM3h float64, sigma Quantity, fluid FluidProps, particle ParticleProps) Quantity {
	deltaRho := particle.Density.Value - fluid.Density.Value
	switch {
	case deltaRho <= 0:
		return Invalid("µm", "cut size undefined: particle not denser than carrier")
	case sigma.Value <= 0:
		return Invalid("µm", "cut size undefined: non-positive sigma")
	case feedM3h <= 0:
		return Invalid("µm", "cut size undefined: non-positive feed rate")
	}
	q := feedM3h / 3600.0 // m3/s
	dc := math.Sqrt(18.0 * fluid.Viscosity.Value * q / (deltaRho * sigma.Value))
	return derive(dc*1e6, "µm", derateCutSize, "sigma-theory cut size",
		sigma, fluid.Density, fluid.Viscosity, particle.Density)
}
