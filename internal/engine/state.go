package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// MaxPlayers caps the roster, host included.
	MaxPlayers = 6
	// HandSize is dealt to every player at game start.
	HandSize = 4
)

var (
	ErrWrongPhase   = errors.New("not allowed in this phase")
	ErrSessionFull  = errors.New("session is full")
	ErrNeedPlayers  = errors.New("need at least 2 players")
	ErrDeckTooSmall = errors.New("deck too small for this roster")
)

// NewState creates a lobby with the host seated as the first player.
func NewState(sessionID string, hostID PlayerID, hostName string) *State {
	return &State{
		SessionID: sessionID,
		Phase:     PhaseLobby,
		Players: []Player{{
			ID:   hostID,
			Name: hostName,
			Hand: []Card{},
		}},
		HostID:  hostID,
		Message: "Waiting for players...",
	}
}

// AcceptJoin seats a new player. Re-join with a known clientID is a no-op on
// the roster (rejoined=true); the caller must still re-send full state to
// that connection, which is how a reconnecting client catches up.
func (s *State) AcceptJoin(name string, clientID PlayerID) (rejoined bool, err error) {
	if s.Phase != PhaseLobby {
		return false, ErrWrongPhase
	}
	if s.PlayerByID(clientID) != nil {
		return true, nil
	}
	if len(s.Players) >= MaxPlayers {
		return false, ErrSessionFull
	}
	s.Players = append(s.Players, Player{ID: clientID, Name: name, Hand: []Card{}})
	return false, nil
}

// AddBot seats a bot with a name not colliding with the current roster.
func (s *State) AddBot(r *rand.Rand) (*Player, error) {
	if s.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if len(s.Players) >= MaxPlayers {
		return nil, ErrSessionFull
	}
	used := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		used[p.Name] = true
	}
	s.Players = append(s.Players, Player{
		ID:   fmt.Sprintf("bot-%d", r.Int63()),
		Name: nextBotName(r, used),
		Hand: []Card{},
		Bot:  true,
	})
	return &s.Players[len(s.Players)-1], nil
}

// RemovePlayer drops a player while still in the lobby. Outside the lobby
// roster membership is frozen; mid-game departures end the session instead
// (EndWithLeaver).
func (s *State) RemovePlayer(id PlayerID) bool {
	if s.Phase != PhaseLobby {
		return false
	}
	for i := range s.Players {
		if s.Players[i].ID == id {
			name := s.Players[i].Name
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			s.Message = fmt.Sprintf("%s left the room.", name)
			return true
		}
	}
	return false
}

// Start shuffles the deck, seeds the timeline with one card, deals HandSize
// cards round-robin and opens play with the first seated player.
func (s *State) Start(deck []Card, r *rand.Rand) error {
	if s.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(s.Players) < 2 {
		return ErrNeedPlayers
	}
	if len(deck) < 1+HandSize*len(s.Players) {
		return ErrDeckTooSmall
	}

	pile := Shuffle(deck, r)
	seed := pile[len(pile)-1]
	pile = pile[:len(pile)-1]

	for i := 0; i < HandSize; i++ {
		for pi := range s.Players {
			s.Players[pi].Hand = append(s.Players[pi].Hand, pile[len(pile)-1])
			pile = pile[:len(pile)-1]
		}
	}

	s.DrawPile = pile
	s.Timeline = []Card{seed}
	s.DiscardPile = []Card{}
	s.Phase = PhasePlaying
	s.CurrentPlayerIndex = 0
	s.Message = fmt.Sprintf("It's %s's turn.", s.Players[0].Name)
	return nil
}

// Outcome reports what PlaceCard did.
type Outcome struct {
	Card    Card
	Correct bool
	Won     bool
}

// PlaceCard validates and applies a move. Malformed, out-of-turn or
// out-of-phase requests are dropped without any state change (applied=false);
// a request from any client must never be able to corrupt authoritative
// state, so there is deliberately no error path here.
func (s *State) PlaceCard(playerID PlayerID, cardID int, slot int) (Outcome, bool) {
	if s.Phase != PhasePlaying {
		return Outcome{}, false
	}
	cur := s.CurrentPlayer()
	if cur == nil || cur.ID != playerID {
		return Outcome{}, false
	}
	if slot < 0 || slot > len(s.Timeline) {
		return Outcome{}, false
	}
	hi := -1
	for i, c := range cur.Hand {
		if c.ID == cardID {
			hi = i
			break
		}
	}
	if hi == -1 {
		return Outcome{}, false
	}

	card := cur.Hand[hi]
	correct := s.placementCorrect(card, slot)
	cur.Hand = append(cur.Hand[:hi], cur.Hand[hi+1:]...)

	if correct {
		s.Timeline = append(s.Timeline, Card{})
		copy(s.Timeline[slot+1:], s.Timeline[slot:])
		s.Timeline[slot] = card

		if len(cur.Hand) == 0 {
			winner := *cur
			s.Winner = &winner
			s.Phase = PhaseGameOver
			s.Message = fmt.Sprintf("%s has won!", cur.Name)
			return Outcome{Card: card, Correct: true, Won: true}, true
		}
	} else {
		s.DiscardPile = append([]Card{card}, s.DiscardPile...)
		if len(s.DrawPile) > 0 {
			cur.Hand = append(cur.Hand, s.DrawPile[len(s.DrawPile)-1])
			s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
		}
	}

	s.advanceTurn()
	return Outcome{Card: card, Correct: correct}, true
}

// placementCorrect applies the chronology rule at slot. Comparisons are
// strict: a card placed against an equal-year neighbor is incorrect.
func (s *State) placementCorrect(card Card, slot int) bool {
	var prev, next *Card
	if slot > 0 {
		prev = &s.Timeline[slot-1]
	}
	if slot < len(s.Timeline) {
		next = &s.Timeline[slot]
	}
	switch {
	case prev == nil && next != nil:
		return card.Year < next.Year
	case prev != nil && next == nil:
		return card.Year > prev.Year
	case prev != nil && next != nil:
		return card.Year > prev.Year && card.Year < next.Year
	default:
		return false
	}
}

func (s *State) advanceTurn() {
	s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
	s.Message = fmt.Sprintf("It's %s's turn.", s.Players[s.CurrentPlayerIndex].Name)
}

// CurrentIsBot reports whether a bot holds the turn in an active game.
func (s *State) CurrentIsBot() bool {
	if s.Phase != PhasePlaying {
		return false
	}
	cur := s.CurrentPlayer()
	return cur != nil && cur.Bot
}

// Cancel forces the terminal phase with no winner, e.g. when the host tears
// the session down.
func (s *State) Cancel(reason string) {
	if s.Phase == PhaseGameOver {
		return
	}
	s.Phase = PhaseGameOver
	s.Winner = nil
	s.Message = reason
}

// EndWithLeaver ends an in-flight game because a human player disconnected.
func (s *State) EndWithLeaver(name string) {
	s.Phase = PhaseGameOver
	s.Winner = nil
	s.Message = fmt.Sprintf("%s has left the game. The game is over.", name)
}
