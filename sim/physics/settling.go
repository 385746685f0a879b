package physics

import "math"

const gravity = 9.81 // m/s2

// Regime classifies the particle Reynolds number into a drag regime.
type Regime string

const (
	RegimeStokes       Regime = "stokes"       // Re < 0.1, creeping flow
	RegimeOseen        Regime = "oseen"        // 0.1 ≤ Re < 1
	RegimeIntermediate Regime = "intermediate" // 1 ≤ Re < 500
	RegimeNewton       Regime = "newton"       // Re ≥ 500, Cd ≈ 0.44
)

// RegimeCorrection is the outcome of classifying a particle Reynolds number:
// the regime, a multiplicative correction on the Stokes terminal velocity,
// and whether the correlation is trusted in that regime. Newton-regime
// results are flagged invalid — a lumped settling model has no business
// there and callers should treat the value as indicative only.
type RegimeCorrection struct {
	Regime           Regime
	CorrectionFactor float64
	Valid            bool
}

// ReynoldsRegime classifies re and returns the velocity correction relative
// to the Stokes solution. Outside creeping flow the Schiller–Naumann drag
// correlation Cd = (24/Re)·(1 + 0.15·Re^0.687) applies, which reduces the
// terminal velocity by 1/(1 + 0.15·Re^0.687). In the Newton regime the
// correction degenerates to (24/Re)/0.44 and the result is marked invalid.
func ReynoldsRegime(re float64) RegimeCorrection {
	switch {
	case re < 0.1:
		return RegimeCorrection{Regime: RegimeStokes, CorrectionFactor: 1.0, Valid: true}
	case re < 1.0:
		return RegimeCorrection{Regime: RegimeOseen, CorrectionFactor: schillerNaumann(re), Valid: true}
	case re < 500.0:
		return RegimeCorrection{Regime: RegimeIntermediate, CorrectionFactor: schillerNaumann(re), Valid: true}
	default:
		return RegimeCorrection{Regime: RegimeNewton, CorrectionFactor: (24.0 / re) / 0.44, Valid: false}
	}
}

func schillerNaumann(re float64) float64 {
	return 1.0 / (1.0 + 0.15*math.Pow(re, 0.687))
}

// ParticleReynolds returns Re = ρ_f·v·d/µ for a particle of diameter dMicron
// (µm) moving at v (m/s) through the given fluid.
func ParticleReynolds(dMicron, v float64, fluid FluidProps) float64 {
	if fluid.Viscosity.Value <= 0 {
		return 0
	}
	return fluid.Density.Value * math.Abs(v) * (dMicron * 1e-6) / fluid.Viscosity.Value
}

// SettlingVelocity returns the Stokes-law terminal velocity of a particle of
// diameter dMicron (µm): vt = g·d²·|Δρ|/(18µ). Strictly valid for Re < 0.1;
// callers needing regime awareness compose this with ReynoldsRegime. A
// non-positive viscosity or diameter yields an Invalid quantity.
func SettlingVelocity(dMicron float64, particleDensity Quantity, fluid FluidProps) Quantity {
	if dMicron <= 0 {
		return Invalid("m/s", "settling velocity undefined for non-positive diameter")
	}
	if fluid.Viscosity.Value <= 0 {
		return Invalid("m/s", "settling velocity undefined for non-positive viscosity")
	}
	d := dMicron * 1e-6
	deltaRho := math.Abs(particleDensity.Value - fluid.Density.Value)
	vt := gravity * d * d * deltaRho / (18.0 * fluid.Viscosity.Value)
	return derive(vt, "m/s", derateStokes, "Stokes law (Re < 0.1)",
		particleDensity, fluid.Density, fluid.Viscosity)
}

// CorrectedSettlingVelocity composes SettlingVelocity with the Reynolds
// regime correction: the Stokes estimate fixes Re, the regime chooses the
// correction factor. In the Newton regime the corrected value is still
// returned but inherits the regime's reduced trust (confidence derated and
// basis flagged).
func CorrectedSettlingVelocity(dMicron float64, particleDensity Quantity, fluid FluidProps) (Quantity, RegimeCorrection) {
	stokes := SettlingVelocity(dMicron, particleDensity, fluid)
	if stokes.Confidence == 0 {
		return stokes, RegimeCorrection{Regime: RegimeStokes, CorrectionFactor: 0, Valid: false}
	}
	re := ParticleReynolds(dMicron, stokes.Value, fluid)
	rc := ReynoldsRegime(re)
	corrected := derive(stokes.Value*rc.CorrectionFactor, "m/s", derateRegime,
		"Stokes velocity with "+string(rc.Regime)+" regime correction", stokes)
	if !rc.Valid {
		corrected.Confidence = clampConfidence(corrected.Confidence * 0.5)
		corrected.Basis += " (outside correlation validity)"
	}
	return corrected, rc
}

// RiseVelocity returns the buoyant rise velocity of an oil droplet in the
// carrier fluid. Identical Stokes form with the density difference reversed;
// a droplet denser than the carrier yields zero (it will not rise).
func RiseVelocity(dMicron float64, dropletDensity Quantity, fluid FluidProps) Quantity {
	if dropletDensity.Value >= fluid.Density.Value {
		return derive(0, "m/s", derateStokes, "droplet denser than carrier, no rise",
			dropletDensity, fluid.Density)
	}
	return SettlingVelocity(dMicron, dropletDensity, fluid)
}
