package netx

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/gorilla/websocket"

	"chronoline/internal/directory"
	"chronoline/pkg/types"
)

// Dial resolves a session code and opens a connection to its host. Failures
// map to the distinct user-legible sentinels: wrong code, directory down,
// host unreachable, timeout.
func Dial(ctx context.Context, cfg types.SessionConfig, code string, log *slog.Logger) (Conn, error) {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	dir := directory.NewClient(cfg.DirectoryURL)
	addr, err := dir.Resolve(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrCodeUnknown):
			return nil, ErrSessionNotFound
		case errors.Is(err, context.DeadlineExceeded):
			return nil, ErrDialTimeout
		default:
			return nil, errors.Join(ErrDirectoryUnavailable, err)
		}
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+"/ws", nil)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, ErrDialTimeout
		default:
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, ErrDialTimeout
			}
			return nil, errors.Join(ErrNetwork, err)
		}
	}
	log.Info("connected to host", "code", code, "addr", addr)
	return newWSConn(ws, log), nil
}
