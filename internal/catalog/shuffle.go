package catalog

import "math/rand/v2"

// Shuffle permutes items in place with Fisher-Yates, walking from the last
// index down to 1 and swapping each element with a uniform pick at or
// before it. A nil rng uses the global source.
func Shuffle[T any](items []T, rng *rand.Rand) {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	for i := len(items) - 1; i > 0; i-- {
		j := intN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
