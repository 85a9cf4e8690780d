package engine

// Card is an immutable chronology card. Year is signed: negative years are
// BCE, positive are CE. Cards are never mutated after deck construction.
type Card struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	ImageURL string `json:"imageUrl,omitempty"`
	Ref      string `json:"ref,omitempty"`
}

// PlayerID is a stable opaque identifier for the session (UUID for humans,
// generated for bots).
type PlayerID = string

// Player is one seat in the session. Hand order is insertion order and has
// no gameplay meaning.
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
	Hand []Card   `json:"hand"`
	Bot  bool     `json:"bot"`
}

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "game_over"
)

// State is the single authoritative aggregate for one session. It lives on
// the host; every other participant holds a read-only replica installed
// wholesale from state broadcasts.
type State struct {
	SessionID string   `json:"sessionId"`
	Phase     Phase    `json:"phase"`
	Players   []Player `json:"players"`
	HostID    PlayerID `json:"hostId"`

	// Timeline is the shared board, always sorted ascending by year.
	// Sortedness is maintained by insertion position, never by re-sorting.
	Timeline []Card `json:"timeline"`
	// DrawPile holds undealt cards; draws pop from the end.
	DrawPile []Card `json:"drawPile"`
	// DiscardPile holds misplaced cards, most recent first.
	DiscardPile []Card `json:"discardPile"`

	CurrentPlayerIndex int     `json:"currentPlayerIndex"`
	Winner             *Player `json:"winner,omitempty"`
	Message            string  `json:"message"`
}

// CurrentPlayer returns the player whose turn it is, or nil outside a game.
func (s *State) CurrentPlayer() *Player {
	if len(s.Players) == 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// PlayerByID returns the roster entry for id, or nil.
func (s *State) PlayerByID(id PlayerID) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// Clone produces a deep copy safe to hand across the broadcast boundary.
func (s *State) Clone() *State {
	cp := *s
	cp.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p
		cp.Players[i].Hand = append([]Card(nil), p.Hand...)
	}
	cp.Timeline = append([]Card(nil), s.Timeline...)
	cp.DrawPile = append([]Card(nil), s.DrawPile...)
	cp.DiscardPile = append([]Card(nil), s.DiscardPile...)
	if s.Winner != nil {
		w := *s.Winner
		w.Hand = append([]Card(nil), s.Winner.Hand...)
		cp.Winner = &w
	}
	return &cp
}
