package session

import (
	"context"
	"log/slog"
	"sync"

	"chronoline/internal/engine"
	"chronoline/internal/netx"
	"chronoline/internal/protocol"
	"chronoline/pkg/types"
)

// HostGoneReason is synthesized locally when the host connection drops; by
// definition no message from the host can announce it.
const HostGoneReason = "The host has disconnected. The game is over."

// Proxy is the non-host participant: it forwards move intents to the host
// and replaces its local state wholesale on every broadcast. It never
// applies a move locally, so no rollback or reconciliation can ever be
// needed.
type Proxy struct {
	conn     netx.Conn
	playerID engine.PlayerID
	log      *slog.Logger

	mu    sync.Mutex
	state *engine.State

	subMu     sync.Mutex
	subs      map[int]func(engine.State)
	nextSubID int

	done chan struct{}
	once sync.Once
}

// Join dials the session behind code and announces this player. The dial
// obeys cfg.DialTimeout; errors are netx's user-legible sentinels.
func Join(ctx context.Context, cfg types.SessionConfig, code, name string, log *slog.Logger) (*Proxy, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := netx.Dial(ctx, cfg, code, log)
	if err != nil {
		return nil, err
	}
	p := newProxy(conn, name, log.With("session", code))
	return p, nil
}

// NewOverConn builds a proxy on an existing connection; tests use it with a
// netx.Pipe.
func NewOverConn(conn netx.Conn, name string, log *slog.Logger) *Proxy {
	if log == nil {
		log = slog.Default()
	}
	return newProxy(conn, name, log)
}

func newProxy(conn netx.Conn, name string, log *slog.Logger) *Proxy {
	p := &Proxy{
		conn:     conn,
		playerID: protocol.NewClientID(),
		log:      log,
		subs:     make(map[int]func(engine.State)),
		done:     make(chan struct{}),
	}
	// announce immediately: the join is what associates this connection
	// with a roster seat on the host
	_ = conn.Send(protocol.Envelope{
		Kind: protocol.KindJoin,
		Join: &protocol.JoinPayload{Name: name, ClientID: p.playerID},
	})
	go p.run()
	return p
}

// PlayerID is this participant's seat id.
func (p *Proxy) PlayerID() engine.PlayerID { return p.playerID }

// Done is closed when the proxy stops (host gone or Close called).
func (p *Proxy) Done() <-chan struct{} { return p.done }

// State returns the current replica, or nil before the first broadcast.
func (p *Proxy) State() *engine.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return nil
	}
	return p.state.Clone()
}

// Subscribe registers a listener for replica replacements.
func (p *Proxy) Subscribe(fn func(engine.State)) func() {
	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subs[id] = fn
	p.subMu.Unlock()
	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

// PlaceCard forwards the move intent; the local replica is left untouched
// until the host's next broadcast decides the outcome.
func (p *Proxy) PlaceCard(cardID, slot int) error {
	return p.conn.Send(protocol.Envelope{
		Kind: protocol.KindMove,
		Move: &protocol.MovePayload{PlayerID: p.playerID, CardID: cardID, Slot: slot},
	})
}

func (p *Proxy) Close() {
	p.once.Do(func() { close(p.done) })
	_ = p.conn.Close()
}

func (p *Proxy) run() {
	for {
		select {
		case env := <-p.conn.Recv():
			switch env.Kind {
			case protocol.KindState:
				p.replace(env.State)
			case protocol.KindCancelled:
				p.endLocally(env.Cancelled.Reason)
			default:
				p.log.Warn("unexpected frame from host", "kind", env.Kind)
			}
		case <-p.conn.Done():
			p.endLocally(HostGoneReason)
			p.once.Do(func() { close(p.done) })
			return
		case <-p.done:
			return
		}
	}
}

func (p *Proxy) replace(next *engine.State) {
	p.mu.Lock()
	p.state = next
	snap := *next.Clone()
	p.mu.Unlock()
	p.notify(snap)
}

// endLocally synthesizes the terminal transition without waiting for any
// host message. A no-op once the game is already over. The host can vanish
// before its first broadcast ever arrives; subscribers still need a terminal
// state to react to, so a replica is synthesized from scratch in that case.
func (p *Proxy) endLocally(reason string) {
	p.mu.Lock()
	if p.state != nil && p.state.Phase == engine.PhaseGameOver {
		p.mu.Unlock()
		return
	}
	if p.state == nil {
		p.state = &engine.State{Phase: engine.PhaseLobby}
	}
	p.state.Cancel(reason)
	snap := *p.state.Clone()
	p.mu.Unlock()
	p.log.Info("session ended locally", "reason", reason)
	p.notify(snap)
}

func (p *Proxy) notify(snap engine.State) {
	p.subMu.Lock()
	fns := make([]func(engine.State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
