package netx

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"chronoline/internal/protocol"
)

// wsConn adapts one websocket to the Conn contract. A single reader
// goroutine feeds recv; writes are serialized with a mutex because gorilla
// allows at most one concurrent writer.
type wsConn struct {
	ws  *websocket.Conn
	log *slog.Logger

	writeMu sync.Mutex
	recv    chan protocol.Envelope
	done    chan struct{}
	once    sync.Once
}

func newWSConn(ws *websocket.Conn, log *slog.Logger) *wsConn {
	c := &wsConn{
		ws:   ws,
		log:  log,
		recv: make(chan protocol.Envelope, 64),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *wsConn) Send(env protocol.Envelope) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.shutdown()
		return ErrConnClosed
	}
	return nil
}

func (c *wsConn) Recv() <-chan protocol.Envelope { return c.recv }
func (c *wsConn) Done() <-chan struct{}          { return c.done }

func (c *wsConn) Close() error {
	c.shutdown()
	return nil
}

func (c *wsConn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *wsConn) readLoop() {
	defer c.shutdown()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			// malformed frame from an untrusted peer: drop, keep the
			// connection
			c.log.Warn("dropping malformed frame", "error", err)
			continue
		}
		select {
		case c.recv <- env:
		case <-c.done:
			return
		}
	}
}
