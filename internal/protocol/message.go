package protocol

import (
	"encoding/json"
	"fmt"

	"chronoline/internal/engine"
)

// Kind tags the closed set of wire messages. Receivers dispatch with an
// exhaustive switch; unknown kinds are a decode error, not a fallthrough.
type Kind string

const (
	// KindJoin is sent once by a client immediately after its connection
	// opens.
	KindJoin Kind = "join"
	// KindState carries the entire session state, host to client(s).
	// Receiving one replaces the receiver's local state wholesale.
	KindState Kind = "state"
	// KindMove asks the host to place a card, client to host.
	KindMove Kind = "move"
	// KindCancelled tells clients the host ended the session without a
	// winner.
	KindCancelled Kind = "cancelled"
)

type JoinPayload struct {
	Name     string `json:"name"`
	ClientID string `json:"clientId"`
}

type MovePayload struct {
	PlayerID string `json:"playerId"`
	CardID   int    `json:"cardId"`
	Slot     int    `json:"timelineIndex"`
}

type CancelledPayload struct {
	Reason string `json:"reason"`
}

// Envelope is one wire frame. Exactly the payload matching Kind is set.
type Envelope struct {
	Kind      Kind              `json:"kind"`
	Join      *JoinPayload      `json:"join,omitempty"`
	State     *engine.State     `json:"state,omitempty"`
	Move      *MovePayload      `json:"move,omitempty"`
	Cancelled *CancelledPayload `json:"cancelled,omitempty"`
}

func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Decode parses a frame and rejects unknown kinds and kind/payload
// mismatches so malformed peers fail loudly at the boundary.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode frame: %w", err)
	}
	switch env.Kind {
	case KindJoin:
		if env.Join == nil {
			return env, fmt.Errorf("join frame without payload")
		}
	case KindState:
		if env.State == nil {
			return env, fmt.Errorf("state frame without payload")
		}
	case KindMove:
		if env.Move == nil {
			return env, fmt.Errorf("move frame without payload")
		}
	case KindCancelled:
		if env.Cancelled == nil {
			return env, fmt.Errorf("cancelled frame without payload")
		}
	default:
		return env, fmt.Errorf("unknown message kind %q", env.Kind)
	}
	return env, nil
}
