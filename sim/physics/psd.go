package physics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxRemovalPct caps the reported removal efficiency. No real bowl removes
// 100% of solids; values above the cap say more about the PSD tail than
// about the machine.
const maxRemovalPct = 99.5

// GeometricSigma returns σ_g of a log-normal PSD from its decile spread:
// σ_g = ln(d90/d10)/2.56, the distance between the 10th and 90th percentile
// z-scores (±1.28) of the standard normal.
func GeometricSigma(dist PSD) float64 {
	if dist.D10 <= 0 || dist.D90 <= dist.D10 {
		return 0
	}
	return math.Log(dist.D90/dist.D10) / 2.56
}

// SolidsRemoval returns the mass percentage of the feed solids captured by a
// bowl with cut size dcMicron, assuming the PSD is log-normal: the captured
// fraction is the mass above d_c, 1 − Φ((ln d_c − ln d50)/σ_g). The normal
// CDF comes from gonum's distuv, whose erf-based evaluation is accurate to
// machine precision. Result capped to [0, 99.5] %.
func SolidsRemoval(dcMicron float64, dist PSD) Quantity {
	if dcMicron <= 0 {
		return Invalid("%", "removal undefined for non-positive cut size")
	}
	if dist.D50 <= 0 {
		return Invalid("%", "removal undefined: PSD median not positive")
	}
	sigmaG := GeometricSigma(dist)
	if sigmaG <= 0 {
		return Invalid("%", "removal undefined: PSD deciles not increasing")
	}
	z := (math.Log(dcMicron) - math.Log(dist.D50)) / sigmaG
	removal := (1.0 - distuv.UnitNormal.CDF(z)) * 100.0
	if removal < 0 {
		removal = 0
	}
	if removal > maxRemovalPct {
		removal = maxRemovalPct
	}
	return derive(removal, "%", derateRemoval, "log-normal PSD mass fraction above cut size")
}
