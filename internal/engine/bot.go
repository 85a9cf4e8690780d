package engine

import (
	"fmt"
	"math/rand"
)

// botNames is the display-name pool for bots, cycled before falling back to
// numeric disambiguation.
var botNames = []string{
	"David", "Abigail", "Ruth", "Paul", "Sarah", "Abraham", "Moses", "Mary",
	"Joseph", "Rebekah", "Isaac", "Rachel", "Jacob", "Leah", "Samuel", "Anna",
	"Daniel", "Esther", "Elijah", "Elisha", "Noah", "Jonah", "Peter", "John",
	"Matthew", "Luke", "Mark", "Timothy", "Lydia", "Priscilla", "Aquila",
	"Barnabas", "Silas", "Titus", "Philemon", "Dorcas", "Cornelius",
	"Stephen", "Philip", "Andrew",
}

func nextBotName(r *rand.Rand, used map[string]bool) string {
	free := make([]string, 0, len(botNames))
	for _, n := range botNames {
		if !used[n] {
			free = append(free, n)
		}
	}
	if len(free) > 0 {
		return free[r.Intn(len(free))]
	}
	// pool exhausted: disambiguate with a number
	base := botNames[r.Intn(len(botNames))]
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s %d", base, i)
		if !used[name] {
			return name
		}
	}
}

// BotMove picks the move the current bot player will make. With probability
// errorRate the bot deliberately picks a uniform random (card, slot) pair
// from the whole hand x insertion-point space, ignoring correctness;
// otherwise it picks uniformly among the correct pairs. When no correct pair
// exists the random fallback applies regardless of the roll.
//
// ok is false when the state offers no move at all (not a bot's turn, empty
// hand, game not running).
func (s *State) BotMove(r *rand.Rand, errorRate float64) (cardID int, slot int, ok bool) {
	if s.Phase != PhasePlaying {
		return 0, 0, false
	}
	cur := s.CurrentPlayer()
	if cur == nil || !cur.Bot || len(cur.Hand) == 0 {
		return 0, 0, false
	}

	type move struct {
		cardID int
		slot   int
	}
	var correct []move
	for _, c := range cur.Hand {
		for i := 0; i <= len(s.Timeline); i++ {
			if s.placementCorrect(c, i) {
				correct = append(correct, move{c.ID, i})
			}
		}
	}

	if len(correct) > 0 && r.Float64() >= errorRate {
		m := correct[r.Intn(len(correct))]
		return m.cardID, m.slot, true
	}
	c := cur.Hand[r.Intn(len(cur.Hand))]
	return c.ID, r.Intn(len(s.Timeline) + 1), true
}
