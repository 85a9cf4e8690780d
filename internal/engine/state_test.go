package engine

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func testDeck(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{ID: i + 1, Name: fmt.Sprintf("event %d", i+1), Year: (i + 1) * 10}
	}
	return cards
}

func testRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

// startedState returns a two-player game already in play.
func startedState(t *testing.T, deckSize int) *State {
	t.Helper()
	s := NewState("CL-0001", "host", "Alice")
	if _, err := s.AcceptJoin("Bob", "client-b"); err != nil {
		t.Fatalf("AcceptJoin: %v", err)
	}
	if err := s.Start(testDeck(deckSize), testRand()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

// cardCensus counts every card id across hands, timeline, draw and discard.
func cardCensus(s *State) map[int]int {
	seen := make(map[int]int)
	for _, p := range s.Players {
		for _, c := range p.Hand {
			seen[c.ID]++
		}
	}
	for _, c := range s.Timeline {
		seen[c.ID]++
	}
	for _, c := range s.DrawPile {
		seen[c.ID]++
	}
	for _, c := range s.DiscardPile {
		seen[c.ID]++
	}
	return seen
}

func assertConservation(t *testing.T, s *State, deckSize int) {
	t.Helper()
	seen := cardCensus(s)
	if len(seen) != deckSize {
		t.Fatalf("card census has %d distinct cards, want %d", len(seen), deckSize)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("card %d appears %d times", id, n)
		}
	}
}

func assertTimelineSorted(t *testing.T, s *State) {
	t.Helper()
	for i := 1; i < len(s.Timeline); i++ {
		if s.Timeline[i-1].Year > s.Timeline[i].Year {
			t.Fatalf("timeline out of order at %d: %d > %d", i, s.Timeline[i-1].Year, s.Timeline[i].Year)
		}
	}
}

func TestStartDealsHandsAndSeed(t *testing.T) {
	const deckSize = 20
	s := startedState(t, deckSize)

	if s.Phase != PhasePlaying {
		t.Fatalf("phase = %s, want playing", s.Phase)
	}
	if len(s.Timeline) != 1 {
		t.Fatalf("timeline has %d cards, want 1", len(s.Timeline))
	}
	for _, p := range s.Players {
		if len(p.Hand) != HandSize {
			t.Fatalf("%s has %d cards, want %d", p.Name, len(p.Hand), HandSize)
		}
	}
	wantDraw := deckSize - 1 - HandSize*len(s.Players)
	if len(s.DrawPile) != wantDraw {
		t.Fatalf("draw pile has %d cards, want %d", len(s.DrawPile), wantDraw)
	}
	if s.CurrentPlayerIndex != 0 {
		t.Fatalf("turn index = %d, want 0", s.CurrentPlayerIndex)
	}
	assertConservation(t, s, deckSize)
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	s := NewState("CL-0001", "host", "Alice")
	if err := s.Start(testDeck(20), testRand()); err != ErrNeedPlayers {
		t.Fatalf("Start with 1 player: err = %v, want ErrNeedPlayers", err)
	}
}

func TestPhaseIsOneDirectional(t *testing.T) {
	s := startedState(t, 20)
	if _, err := s.AcceptJoin("Late", "client-late"); err != ErrWrongPhase {
		t.Fatalf("join while playing: err = %v, want ErrWrongPhase", err)
	}
	if err := s.Start(testDeck(20), testRand()); err != ErrWrongPhase {
		t.Fatalf("restart while playing: err = %v, want ErrWrongPhase", err)
	}
	if _, err := s.AddBot(testRand()); err != ErrWrongPhase {
		t.Fatalf("add bot while playing: err = %v, want ErrWrongPhase", err)
	}
	if s.RemovePlayer("client-b") {
		t.Fatal("RemovePlayer must refuse outside the lobby")
	}
}

func TestJoinIdempotentPerClientID(t *testing.T) {
	s := NewState("CL-0001", "host", "Alice")
	if _, err := s.AcceptJoin("Bob", "client-b"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	rejoined, err := s.AcceptJoin("Bob", "client-b")
	if err != nil {
		t.Fatalf("re-join: %v", err)
	}
	if !rejoined {
		t.Fatal("re-join with same clientID must report rejoined")
	}
	if len(s.Players) != 2 {
		t.Fatalf("roster has %d players after re-join, want 2", len(s.Players))
	}
}

func TestJoinCapacity(t *testing.T) {
	s := NewState("CL-0001", "host", "Alice")
	for i := 1; i < MaxPlayers; i++ {
		if _, err := s.AcceptJoin(fmt.Sprintf("P%d", i), fmt.Sprintf("c%d", i)); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := s.AcceptJoin("Extra", "extra"); err != ErrSessionFull {
		t.Fatalf("7th join: err = %v, want ErrSessionFull", err)
	}
}

// Scenario: timeline [100], hand has a year-50 card placed at slot 0.
func TestPlaceCardCorrectAtFront(t *testing.T) {
	s := &State{
		SessionID: "CL-0001",
		Phase:     PhasePlaying,
		Players: []Player{
			{ID: "p1", Name: "Alice", Hand: []Card{{ID: 1, Year: 50}, {ID: 2, Year: 999}}},
			{ID: "p2", Name: "Bob", Hand: []Card{{ID: 3, Year: 5}}},
		},
		HostID:   "p1",
		Timeline: []Card{{ID: 10, Year: 100}},
	}
	out, applied := s.PlaceCard("p1", 1, 0)
	if !applied || !out.Correct {
		t.Fatalf("applied=%v correct=%v, want both true", applied, out.Correct)
	}
	if s.Timeline[0].Year != 50 || s.Timeline[1].Year != 100 {
		t.Fatalf("timeline years = %d,%d, want 50,100", s.Timeline[0].Year, s.Timeline[1].Year)
	}
	if s.CurrentPlayerIndex != 1 {
		t.Fatalf("turn did not advance: index = %d", s.CurrentPlayerIndex)
	}
	assertTimelineSorted(t, s)
}

// Scenario: a year-150 card claimed to precede year 100 is incorrect.
func TestPlaceCardIncorrectDiscardsAndRedraws(t *testing.T) {
	for _, tc := range []struct {
		name     string
		drawPile []Card
		wantHand int
	}{
		{"draw pile non-empty", []Card{{ID: 20, Year: 400}}, 2},
		{"draw pile empty", nil, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := &State{
				Phase: PhasePlaying,
				Players: []Player{
					{ID: "p1", Name: "Alice", Hand: []Card{{ID: 1, Year: 150}, {ID: 2, Year: 999}}},
					{ID: "p2", Name: "Bob", Hand: []Card{{ID: 3, Year: 5}}},
				},
				Timeline: []Card{{ID: 10, Year: 100}},
				DrawPile: tc.drawPile,
			}
			out, applied := s.PlaceCard("p1", 1, 0)
			if !applied || out.Correct {
				t.Fatalf("applied=%v correct=%v, want applied and incorrect", applied, out.Correct)
			}
			if len(s.DiscardPile) != 1 || s.DiscardPile[0].ID != 1 {
				t.Fatalf("discard pile = %+v, want the misplaced card in front", s.DiscardPile)
			}
			if len(s.Players[0].Hand) != tc.wantHand {
				t.Fatalf("hand size = %d, want %d", len(s.Players[0].Hand), tc.wantHand)
			}
			if len(s.Timeline) != 1 {
				t.Fatalf("timeline grew on an incorrect placement")
			}
		})
	}
}

func TestPlacementRule(t *testing.T) {
	s := &State{Timeline: []Card{{Year: 100}, {Year: 200}}}
	tests := []struct {
		name string
		year int
		slot int
		want bool
	}{
		{"before first, earlier", 50, 0, true},
		{"before first, later", 150, 0, false},
		{"between, fits", 150, 1, true},
		{"between, too early", 50, 1, false},
		{"after last, later", 300, 2, true},
		{"after last, earlier", 150, 2, false},
		{"tie with prev is incorrect", 100, 1, false},
		{"tie with next is incorrect", 200, 1, false},
		{"tie at front is incorrect", 100, 0, false},
		{"tie at end is incorrect", 200, 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.placementCorrect(Card{Year: tc.year}, tc.slot); got != tc.want {
				t.Errorf("placementCorrect(year=%d, slot=%d) = %v, want %v", tc.year, tc.slot, got, tc.want)
			}
		})
	}
}

// A request from anyone but the current player must leave the state
// byte-for-byte identical and report not-applied.
func TestOutOfTurnMoveIsIgnored(t *testing.T) {
	s := startedState(t, 20)
	other := s.Players[1]
	before := s.Clone()

	if _, applied := s.PlaceCard(other.ID, other.Hand[0].ID, 0); applied {
		t.Fatal("out-of-turn move was applied")
	}
	if !reflect.DeepEqual(before, s.Clone()) {
		t.Fatal("out-of-turn move mutated state")
	}
}

func TestMalformedMovesAreIgnored(t *testing.T) {
	s := startedState(t, 20)
	cur := s.CurrentPlayer()
	before := s.Clone()

	if _, applied := s.PlaceCard(cur.ID, 9999, 0); applied {
		t.Fatal("move with unknown card was applied")
	}
	if _, applied := s.PlaceCard(cur.ID, cur.Hand[0].ID, -1); applied {
		t.Fatal("move with negative slot was applied")
	}
	if _, applied := s.PlaceCard(cur.ID, cur.Hand[0].ID, len(s.Timeline)+1); applied {
		t.Fatal("move past the end of the timeline was applied")
	}
	if _, applied := s.PlaceCard("stranger", cur.Hand[0].ID, 0); applied {
		t.Fatal("move from unknown player was applied")
	}
	if !reflect.DeepEqual(before, s.Clone()) {
		t.Fatal("ignored moves mutated state")
	}
}

func TestWinOnEmptyHand(t *testing.T) {
	s := &State{
		Phase: PhasePlaying,
		Players: []Player{
			{ID: "p1", Name: "Alice", Hand: []Card{{ID: 1, Year: 50}}},
			{ID: "p2", Name: "Bob", Hand: []Card{{ID: 3, Year: 5}}},
		},
		Timeline: []Card{{ID: 10, Year: 100}},
	}
	out, applied := s.PlaceCard("p1", 1, 0)
	if !applied || !out.Won {
		t.Fatalf("applied=%v won=%v, want both true", applied, out.Won)
	}
	if s.Phase != PhaseGameOver {
		t.Fatalf("phase = %s, want game_over", s.Phase)
	}
	if s.Winner == nil || s.Winner.ID != "p1" {
		t.Fatalf("winner = %+v, want p1", s.Winner)
	}
	if s.CurrentIsBot() {
		t.Fatal("no further turn may be live after a win")
	}
	// terminal: further moves are dropped
	if _, applied := s.PlaceCard("p2", 3, 0); applied {
		t.Fatal("move applied after game over")
	}
}

func TestConservationAcrossFullGame(t *testing.T) {
	const deckSize = 30
	s := NewState("CL-0001", "host", "Alice")
	r := testRand()
	if _, err := s.AcceptJoin("Bob", "client-b"); err != nil {
		t.Fatalf("AcceptJoin: %v", err)
	}
	if _, err := s.AddBot(r); err != nil {
		t.Fatalf("AddBot: %v", err)
	}
	if err := s.Start(testDeck(deckSize), r); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// drive random (mostly wrong) moves through every seat until the game
	// ends or the piles drain; conservation and order must hold throughout
	for i := 0; i < 500 && s.Phase == PhasePlaying; i++ {
		cur := s.CurrentPlayer()
		if len(cur.Hand) == 0 {
			s.advanceTurn()
			continue
		}
		card := cur.Hand[r.Intn(len(cur.Hand))]
		slot := r.Intn(len(s.Timeline) + 1)
		if _, applied := s.PlaceCard(cur.ID, card.ID, slot); !applied {
			t.Fatalf("legal move was dropped at step %d", i)
		}
		assertConservation(t, s, deckSize)
		assertTimelineSorted(t, s)
	}
}

func TestRemovePlayerInLobby(t *testing.T) {
	s := NewState("CL-0001", "host", "Alice")
	if _, err := s.AcceptJoin("Bob", "client-b"); err != nil {
		t.Fatalf("AcceptJoin: %v", err)
	}
	if !s.RemovePlayer("client-b") {
		t.Fatal("RemovePlayer failed in lobby")
	}
	if len(s.Players) != 1 {
		t.Fatalf("roster has %d players, want 1", len(s.Players))
	}
	if s.RemovePlayer("client-b") {
		t.Fatal("RemovePlayer succeeded for an absent player")
	}
}

func TestEndWithLeaver(t *testing.T) {
	s := startedState(t, 20)
	s.EndWithLeaver("Bob")
	if s.Phase != PhaseGameOver {
		t.Fatalf("phase = %s, want game_over", s.Phase)
	}
	if s.Winner != nil {
		t.Fatalf("winner = %+v, want none", s.Winner)
	}
	if want := "Bob has left the game. The game is over."; s.Message != want {
		t.Fatalf("message = %q, want %q", s.Message, want)
	}
}

func TestCancelIsTerminalNoop(t *testing.T) {
	s := startedState(t, 20)
	s.Cancel("host gone")
	if s.Phase != PhaseGameOver || s.Message != "host gone" {
		t.Fatalf("cancel: phase=%s message=%q", s.Phase, s.Message)
	}
	s.Cancel("second reason")
	if s.Message != "host gone" {
		t.Fatal("Cancel overwrote a terminal state")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := startedState(t, 20)
	cp := s.Clone()
	cp.Players[0].Hand[0].Year = -9999
	cp.Timeline[0].Year = -9999
	if s.Players[0].Hand[0].Year == -9999 || s.Timeline[0].Year == -9999 {
		t.Fatal("Clone shares backing arrays with the original")
	}
}
