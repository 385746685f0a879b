package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes a per-tick sampled series.
type Distribution struct {
	Mean float64
	P50  float64
	P95  float64
	P99  float64
}

func summarize(samples []float64) Distribution {
	if len(samples) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return Distribution{
		Mean: stat.Mean(sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:  stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}

// kpiSamples collects the per-tick series the KPI report summarizes.
// Samples are recorded only on ticks where the separator was fed.
type kpiSamples struct {
	removalPct  []float64
	recoveryPct []float64
	outletPPM   []float64
	sepFeedM3h  []float64
	feedTempC   []float64
	fedSteps    uint64
}

func (k *kpiSamples) record(s *Separator) {
	k.removalPct = append(k.removalPct, s.SolidsRemovalPct)
	k.recoveryPct = append(k.recoveryPct, s.OilRecoveryPct)
	k.outletPPM = append(k.outletPPM, s.OutletOilPPM)
	k.sepFeedM3h = append(k.sepFeedM3h, s.InletFlowM3h)
	k.feedTempC = append(k.feedTempC, s.InletTempC)
	k.fedSteps++
}

// ProcessKPIs is the performance report for a run so far.
type ProcessKPIs struct {
	RunID    string
	SimTimeS float64

	SolidsRemovalPct Distribution
	OilRecoveryPct   Distribution
	OutletOilPPM     Distribution
	SepFeedM3h       Distribution
	FeedTempC        Distribution

	// SpecificEnergyKWhM3 is total plant energy per m3 of separator feed.
	SpecificEnergyKWhM3 float64
	// UptimePct is the share of steps on which the separator received feed.
	UptimePct float64

	Totals Totals
}
