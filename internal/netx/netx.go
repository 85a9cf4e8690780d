// Package netx is the transport adapter: it turns a short session code into
// an addressable host endpoint (via the directory) and gives both sides a
// reliable, order-preserving message channel per connection. Ordering is a
// hard requirement here: state broadcasts replace the receiver's state
// wholesale, so a reordered channel could let an old state clobber a newer
// one.
package netx

import (
	"errors"

	"chronoline/internal/protocol"
)

var (
	// ErrNoFreeCode is fatal to session creation: the code claim retry
	// budget was exhausted.
	ErrNoFreeCode = errors.New("could not allocate a session code, try again")
	// ErrSessionNotFound means the directory has no live host for the code.
	ErrSessionNotFound = errors.New("session not found, check the room code")
	// ErrDirectoryUnavailable means the directory service itself could not
	// be reached.
	ErrDirectoryUnavailable = errors.New("the session directory is unavailable, try again in a few minutes")
	// ErrDialTimeout means the host resolved but did not answer in time.
	ErrDialTimeout = errors.New("timed out connecting to the host, check your connection")
	// ErrNetwork covers reachability failures between resolve and open.
	ErrNetwork = errors.New("network error, check your connection and firewall")
	// ErrConnClosed is returned by Send after the connection closed.
	ErrConnClosed = errors.New("connection closed")
)

// Conn is one reliable-ordered message channel. Send is best-effort: the
// caller gets ErrConnClosed after close but no delivery acknowledgment
// beyond what the underlying channel provides.
type Conn interface {
	Send(env protocol.Envelope) error
	// Recv yields decoded inbound frames; malformed frames are dropped at
	// this boundary and never reach the session layer.
	Recv() <-chan protocol.Envelope
	// Done is closed when the connection is no longer usable, whether
	// closed locally or by the peer.
	Done() <-chan struct{}
	Close() error
}
