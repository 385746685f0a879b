package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmptySeries(t *testing.T) {
	assert.Equal(t, Distribution{}, summarize(nil))
}

func TestSummarizeKnownSeries(t *testing.T) {
	samples := make([]float64, 0, 100)
	for i := 100; i >= 1; i-- { // deliberately unsorted
		samples = append(samples, float64(i))
	}

	d := summarize(samples)

	assert.InDelta(t, 50.5, d.Mean, 1e-12)
	assert.Equal(t, 50.0, d.P50)
	assert.Equal(t, 95.0, d.P95)
	assert.Equal(t, 99.0, d.P99)

	// summarize works on a copy; the caller's series keeps its order.
	assert.Equal(t, 100.0, samples[0])
}

func TestKPISamplesRecord(t *testing.T) {
	s := &Separator{
		SolidsRemovalPct: 76.6,
		OilRecoveryPct:   98,
		OutletOilPPM:     850,
		InletFlowM3h:     18,
		InletTempC:       80,
	}

	var k kpiSamples
	k.record(s)
	k.record(s)

	assert.Equal(t, uint64(2), k.fedSteps)
	assert.Len(t, k.removalPct, 2)
	assert.Equal(t, 76.6, k.removalPct[0])
	assert.Equal(t, 18.0, k.sepFeedM3h[1])
}
