// Package session wires the authoritative engine to the transport. Session
// is the host side: it owns the endpoint, the single source-of-truth state
// and all connection bookkeeping. Proxy is the non-host side: a thin
// forwarder holding a read-only replica.
//
// All state mutation happens on one event-loop goroutine; connections and
// timers only post events into it. Near-simultaneous move requests from
// different clients are therefore serialized by construction, and the
// turn-ownership check decides which of them has any effect.
package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"chronoline/internal/engine"
	"chronoline/internal/netx"
	"chronoline/internal/protocol"
	"chronoline/pkg/types"
)

// Endpoint is what a Session needs from the transport's host side. Satisfied
// by *netx.Endpoint; tests substitute an in-memory implementation.
type Endpoint interface {
	Code() string
	Accept() <-chan netx.Conn
	Close() error
}

// HostCancelledReason is broadcast when the host tears the session down.
const HostCancelledReason = "The host has ended the game."

// ErrSessionClosed is returned by commands issued after Close.
var ErrSessionClosed = errors.New("session closed")

type event struct {
	conn   netx.Conn
	env    protocol.Envelope
	closed bool // conn closed

	cmd  func() error // host-local command, run on the loop
	resp chan error

	botTurn bool
}

// Session is one hosted game: endpoint, engine state and fan-out control.
type Session struct {
	cfg       types.SessionConfig
	ep        Endpoint
	log       *slog.Logger
	cards     []engine.Card
	errorRate float64
	r         *rand.Rand

	state  *engine.State
	conns  map[netx.Conn]engine.PlayerID // "" until the Join arrives
	events chan event
	done   chan struct{}
	once   sync.Once

	subMu     sync.Mutex
	subs      map[int]func(engine.State)
	nextSubID int
}

// New assembles a Session around an already-open endpoint. The deck and the
// bot error rate are fixed for the session's lifetime.
func New(cfg types.SessionConfig, ep Endpoint, cards []engine.Card, errorRate float64, log *slog.Logger) *Session {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		cfg:       cfg,
		ep:        ep,
		log:       log.With("session", ep.Code()),
		cards:     cards,
		errorRate: errorRate,
		r:         rand.New(rand.NewSource(time.Now().UnixNano())),
		state:     engine.NewState(ep.Code(), protocol.NewClientID(), cfg.HostName),
		conns:     make(map[netx.Conn]engine.PlayerID),
		events:    make(chan event, 256),
		done:      make(chan struct{}),
		subs:      make(map[int]func(engine.State)),
	}
	go s.acceptLoop()
	go s.run()
	return s
}

// Host opens an endpoint (claiming a fresh session code), warms the relay
// credential cache and starts the session around it.
func Host(ctx context.Context, cfg types.SessionConfig, cards []engine.Card, errorRate float64, log *slog.Logger) (*Session, error) {
	cfg = cfg.WithDefaults()
	ep, err := netx.Host(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	creds := netx.NewCredentialProvider(cfg.CredentialURL, log)
	// best-effort: sessions start fine on the public fallback list
	_ = creds.Get(ctx)
	return New(cfg, ep, cards, errorRate, log), nil
}

// Code returns the shareable room code.
func (s *Session) Code() string { return s.ep.Code() }

// HostPlayerID returns the host's own seat id.
func (s *Session) HostPlayerID() engine.PlayerID { return s.state.HostID }

// Done is closed once the session has fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Subscribe registers a local listener called with a snapshot after every
// authoritative change; this is the host UI's path. The returned func
// unsubscribes.
func (s *Session) Subscribe(fn func(engine.State)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// State returns a snapshot of the authoritative state, or the zero State
// after Close.
func (s *Session) State() engine.State {
	var snap engine.State
	_ = s.command(func() error {
		snap = *s.state.Clone()
		return nil
	})
	return snap
}

// AddBot seats a bot (lobby only).
func (s *Session) AddBot() error {
	return s.command(func() error {
		if _, err := s.state.AddBot(s.r); err != nil {
			return err
		}
		s.broadcast()
		return nil
	})
}

// StartGame deals and opens play (lobby only, needs two players).
func (s *Session) StartGame() error {
	return s.command(func() error {
		if err := s.state.Start(s.cards, s.r); err != nil {
			return err
		}
		s.broadcast()
		s.maybeScheduleBot()
		return nil
	})
}

// PlaceCard applies the host's own move directly; invalid or out-of-turn
// requests are silently dropped exactly like remote ones.
func (s *Session) PlaceCard(cardID, slot int) {
	_ = s.command(func() error {
		s.applyMove(s.state.HostID, cardID, slot)
		return nil
	})
}

// Close cancels the game, tells every client best-effort and destroys the
// endpoint. Clients must independently detect the connection close anyway.
func (s *Session) Close() {
	_ = s.command(func() error {
		cancelled := protocol.Envelope{
			Kind:      protocol.KindCancelled,
			Cancelled: &protocol.CancelledPayload{Reason: HostCancelledReason},
		}
		for c := range s.conns {
			_ = c.Send(cancelled)
		}
		s.state.Cancel(HostCancelledReason)
		s.notifyLocal()
		return nil
	})
	s.once.Do(func() {
		close(s.done)
		_ = s.ep.Close()
	})
}

// post enqueues an event for the loop. Once done is closed the loop no longer
// drains events, so a queued event would never run; check done first and
// again while blocked so a successful send means a live consumer existed at
// that moment.
func (s *Session) post(ev event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// command runs fn on the loop and waits for its result. Teardown can still
// race the enqueue, so the wait also watches done; a command stranded in the
// queue by Close resolves as ErrSessionClosed instead of blocking forever.
func (s *Session) command(fn func() error) error {
	resp := make(chan error, 1)
	if !s.post(event{cmd: fn, resp: resp}) {
		return ErrSessionClosed
	}
	select {
	case err := <-resp:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) acceptLoop() {
	for {
		select {
		case conn, ok := <-s.ep.Accept():
			if !ok {
				return
			}
			s.post(event{conn: conn})
		case <-s.done:
			return
		}
	}
}

// pump forwards one connection's frames and its close into the event loop.
func (s *Session) pump(conn netx.Conn) {
	for {
		select {
		case env := <-conn.Recv():
			if !s.post(event{conn: conn, env: env}) {
				return
			}
		case <-conn.Done():
			s.post(event{conn: conn, closed: true})
			return
		}
	}
}

func (s *Session) run() {
	for {
		// done wins over a non-empty queue; stranded commands resolve
		// through the done-select in command
		select {
		case <-s.done:
			return
		default:
		}
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev event) {
	switch {
	case ev.cmd != nil:
		ev.resp <- ev.cmd()
	case ev.botTurn:
		s.playBotTurn()
	case ev.closed:
		s.onConnClosed(ev.conn)
	case ev.env.Kind != "":
		s.onFrame(ev.conn, ev.env)
	case ev.conn != nil:
		s.conns[ev.conn] = ""
		go s.pump(ev.conn)
	}
}

func (s *Session) onFrame(conn netx.Conn, env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindJoin:
		s.onJoin(conn, *env.Join)
	case protocol.KindMove:
		s.applyMove(env.Move.PlayerID, env.Move.CardID, env.Move.Slot)
	default:
		// state/cancelled frames only flow host -> client; a client sending
		// one is misbehaving and gets ignored
		s.log.Warn("unexpected frame from client", "kind", env.Kind)
	}
}

func (s *Session) onJoin(conn netx.Conn, join protocol.JoinPayload) {
	rejoined, err := s.state.AcceptJoin(join.Name, join.ClientID)
	if err != nil {
		s.log.Info("join refused", "name", join.Name, "error", err)
		return
	}
	s.conns[conn] = join.ClientID

	// send directly to this connection first: this is how a late or
	// reconnecting client catches up even when the roster did not change
	_ = conn.Send(protocol.Envelope{Kind: protocol.KindState, State: s.state.Clone()})
	s.log.Info("player joined", "name", join.Name, "rejoined", rejoined, "players", len(s.state.Players))
	s.broadcast()
}

func (s *Session) onConnClosed(conn netx.Conn) {
	clientID, ok := s.conns[conn]
	delete(s.conns, conn)
	if !ok || clientID == "" {
		return // never associated with a player
	}
	player := s.state.PlayerByID(clientID)
	if player == nil {
		return
	}
	switch s.state.Phase {
	case engine.PhaseLobby:
		if s.state.RemovePlayer(clientID) {
			s.log.Info("player left lobby", "name", player.Name)
			s.broadcast()
		}
	case engine.PhasePlaying:
		if !player.Bot {
			s.log.Info("player disconnected mid-game", "name", player.Name)
			s.state.EndWithLeaver(player.Name)
			s.broadcast()
		}
	}
}

func (s *Session) applyMove(playerID engine.PlayerID, cardID, slot int) {
	outcome, applied := s.state.PlaceCard(playerID, cardID, slot)
	if !applied {
		// out-of-turn or malformed: drop without broadcast, on purpose
		s.log.Debug("move ignored", "player", playerID, "card", cardID)
		return
	}
	s.log.Info("card placed",
		"player", playerID, "card", outcome.Card.Name,
		"correct", outcome.Correct, "won", outcome.Won)
	s.broadcast()
	s.maybeScheduleBot()
}

func (s *Session) maybeScheduleBot() {
	if !s.state.CurrentIsBot() {
		return
	}
	// pacing delay only; correctness does not depend on it
	time.AfterFunc(s.cfg.BotDelay, func() {
		s.post(event{botTurn: true})
	})
}

func (s *Session) playBotTurn() {
	// the game may have ended between scheduling and firing
	cardID, slot, ok := s.state.BotMove(s.r, s.errorRate)
	if !ok {
		return
	}
	s.applyMove(s.state.CurrentPlayer().ID, cardID, slot)
}

// broadcast sends the full state to every connection and local subscriber.
// There is no delta path: wholesale replacement needs no sequence numbers or
// reconciliation on an ordered channel.
func (s *Session) broadcast() {
	snap := s.state.Clone()
	env := protocol.Envelope{Kind: protocol.KindState, State: snap}
	for c := range s.conns {
		if err := c.Send(env); err != nil {
			s.log.Warn("state send failed", "error", err)
		}
	}
	s.notifyLocal()
}

func (s *Session) notifyLocal() {
	snap := *s.state.Clone()
	s.subMu.Lock()
	fns := make([]func(engine.State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
