package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFeedConfig() FeedConfig {
	return FeedConfig{
		TankID:  "T-1",
		RateM3h: 15,
		TempC:   65,
		Comp:    Composition{Water: 0.95, Oil: 0.03, Solids: 0.02},
	}
}

func TestFeedDeliverExactWithoutNoise(t *testing.T) {
	f := &feedProgram{cfg: testFeedConfig(), rng: rand.New(rand.NewSource(1))}
	tank := testTank()

	accepted, spilled := f.deliver(1, tank)

	assert.InDelta(t, 15.0/3600, accepted, 1e-12)
	assert.Equal(t, 0.0, spilled)
}

func TestFeedSpillsWhenTankIsFull(t *testing.T) {
	f := &feedProgram{cfg: testFeedConfig(), rng: rand.New(rand.NewSource(1))}
	tank := testTank()
	tank.setVolume(9.999) // 0.001 m3 of headroom left

	accepted, spilled := f.deliver(1, tank)

	assert.InDelta(t, 0.001, accepted, 1e-12)
	assert.InDelta(t, 15.0/3600-0.001, spilled, 1e-12)
}

func TestFeedZeroRateDeliversNothing(t *testing.T) {
	cfg := testFeedConfig()
	cfg.RateM3h = 0
	f := &feedProgram{cfg: cfg, rng: rand.New(rand.NewSource(1))}
	tank := testTank()

	accepted, spilled := f.deliver(1, tank)
	assert.Equal(t, 0.0, accepted)
	assert.Equal(t, 0.0, spilled)
}

func TestFeedNoiseIsSeedReproducible(t *testing.T) {
	cfg := testFeedConfig()
	cfg.NoisePct = 5

	run := func() []float64 {
		f := &feedProgram{cfg: cfg, rng: rand.New(rand.NewSource(9))}
		tank := testTank()
		var got []float64
		for i := 0; i < 10; i++ {
			accepted, _ := f.deliver(1, tank)
			got = append(got, accepted)
		}
		return got
	}

	a, b := run(), run()
	assert.Equal(t, a, b)

	// The draws actually perturb the rate.
	assert.NotEqual(t, a[0], a[1])
}
