package netx

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chronoline/internal/directory"
	"chronoline/internal/protocol"
	"chronoline/pkg/types"
)

// claimAttempts bounds the code-collision retry loop.
const claimAttempts = 5

// leaseRefresh keeps the directory registration alive while hosting.
const leaseRefresh = time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// room codes are the access control; the endpoint accepts any origin
	CheckOrigin: func(*http.Request) bool { return true },
}

// Endpoint is the host side of the transport: an addressable websocket
// listener registered in the directory under a short session code.
type Endpoint struct {
	code string
	addr string
	ln   net.Listener
	srv  *http.Server
	dir  *directory.Client
	log  *slog.Logger

	accept chan Conn
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	conns []Conn
}

// Host claims a fresh session code and opens the endpoint behind it. Up to
// claimAttempts codes are tried on collision before giving up with
// ErrNoFreeCode.
func Host(ctx context.Context, cfg types.SessionConfig, log *slog.Logger) (*Endpoint, error) {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = slog.Default()
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	addr := cfg.AdvertiseAddr
	if addr == "" || addr == cfg.ListenAddr {
		addr = ln.Addr().String()
	}

	dir := directory.NewClient(cfg.DirectoryURL)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var code string
	for attempt := 0; ; attempt++ {
		if attempt == claimAttempts {
			_ = ln.Close()
			return nil, ErrNoFreeCode
		}
		code = protocol.NewSessionCode(r)
		err := dir.Claim(ctx, code, addr)
		if err == nil {
			break
		}
		if errors.Is(err, directory.ErrCodeTaken) {
			log.Info("session code collision, retrying", "code", code)
			continue
		}
		_ = ln.Close()
		return nil, errors.Join(ErrDirectoryUnavailable, err)
	}

	ep := &Endpoint{
		code:   code,
		addr:   addr,
		ln:     ln,
		dir:    dir,
		log:    log,
		accept: make(chan Conn, 16),
		done:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ep.handleWS)
	ep.srv = &http.Server{Handler: mux}

	go func() {
		if err := ep.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("endpoint serve", "error", err)
		}
	}()
	go ep.refreshLease()

	log.Info("endpoint open", "code", code, "addr", addr)
	return ep, nil
}

// Code returns the shareable session code.
func (e *Endpoint) Code() string { return e.code }

// Accept yields inbound connections as they open.
func (e *Endpoint) Accept() <-chan Conn { return e.accept }

// Close releases the code and tears the listener and all connections down.
// Callers wanting a graceful cancellation notice send it before Close; the
// clients' own close detection is the authoritative backstop either way.
func (e *Endpoint) Close() error {
	e.once.Do(func() {
		close(e.done)
		e.dir.Release(e.code, e.addr)
		_ = e.srv.Close()
		e.mu.Lock()
		conns := e.conns
		e.conns = nil
		e.mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
		e.log.Info("endpoint closed", "code", e.code)
	})
	return nil
}

func (e *Endpoint) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn := newWSConn(ws, e.log)
	e.mu.Lock()
	e.conns = append(e.conns, conn)
	e.mu.Unlock()
	select {
	case e.accept <- conn:
	case <-e.done:
		_ = conn.Close()
	}
}

func (e *Endpoint) refreshLease() {
	t := time.NewTicker(leaseRefresh)
	defer t.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := e.dir.Refresh(ctx, e.code, e.addr); err != nil {
				e.log.Warn("lease refresh failed", "code", e.code, "error", err)
			}
			cancel()
		}
	}
}
