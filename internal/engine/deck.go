package engine

import "math/rand"

// Shuffle returns a uniform random permutation of cards. The input slice is
// never mutated.
func Shuffle(cards []Card, r *rand.Rand) []Card {
	out := append([]Card(nil), cards...)
	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
