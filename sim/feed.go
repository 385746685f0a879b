package sim

import "math/rand"

// feedProgram models the upstream process delivering raw feed into the
// plant's feed tank. The rate carries optional gaussian noise; zero noise
// makes the inflow exactly reproducible.
type feedProgram struct {
	cfg FeedConfig
	rng *rand.Rand
}

// deliver pushes one tick of feed into the tank and returns accepted and
// spilled volume. A full tank rejects the excess; the plant upstream does
// not stop for us.
func (f *feedProgram) deliver(dt float64, t *Tank) (accepted, spilled float64) {
	rate := f.cfg.RateM3h
	if f.cfg.NoisePct > 0 {
		rate *= 1 + f.cfg.NoisePct/100*f.rng.NormFloat64()
	}
	if rate <= 0 {
		return 0, 0
	}
	vol := rate * dt / 3600
	accepted = t.addVolume(vol, f.cfg.Comp, f.cfg.TempC)
	return accepted, vol - accepted
}
