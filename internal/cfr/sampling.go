package cfr

import rand "math/rand/v2"

// sampleIndex draws one index from a discrete distribution. Entries that are
// not positive carry no weight; if nothing is positive the draw is uniform,
// so a degenerate vector never produces undefined behavior.
func sampleIndex(rng *rand.Rand, dist []float64) int {
	total := 0.0
	for _, p := range dist {
		if p > 0 {
			total += p
		}
	}
	if total <= 0 {
		return rng.IntN(len(dist))
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, p := range dist {
		if p <= 0 {
			continue
		}
		acc += p
		if r <= acc {
			return i
		}
	}
	return len(dist) - 1
}
