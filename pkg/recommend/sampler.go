package recommend

import (
	"math/rand"

	"MusicMate-Go/pkg/music"
)

// Sample selects min(k, len(pool)) tracks uniformly at random without
// replacement. The output order is randomized independently of the
// pool's original ranking, so even a pool smaller than k comes back
// shuffled. Repeated calls are not expected to agree; determinism is
// only available through the seeded rng.
func Sample(pool []music.Track, k int, rng *rand.Rand) []music.Track {
	n := len(pool)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	picked := rng.Perm(n)[:k]
	out := make([]music.Track, k)
	for i, j := range picked {
		out[i] = pool[j]
	}
	return out
}
