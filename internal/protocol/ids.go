package protocol

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// CodePrefix namespaces session codes so they are recognizable when shared
// out of band.
const CodePrefix = "CL"

// NewSessionCode produces a short human-transcribable room code, e.g.
// "CL-4821". Digits only, so there are no ambiguous characters. Collisions
// are possible and handled by the claim retry loop in netx.
func NewSessionCode(r *rand.Rand) string {
	return fmt.Sprintf("%s-%04d", CodePrefix, 1000+r.Intn(9000))
}

// NewClientID generates the stable per-session player identity.
func NewClientID() string { return uuid.NewString() }
