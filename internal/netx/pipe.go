package netx

import (
	"sync"

	"chronoline/internal/protocol"
)

// Pipe returns two connected in-memory Conns. Handy for single-process
// session tests without sockets; closing either side is observed by both,
// like a torn-down network connection.
func Pipe() (Conn, Conn) {
	a := &pipeConn{recv: make(chan protocol.Envelope, 64), done: make(chan struct{})}
	b := &pipeConn{recv: make(chan protocol.Envelope, 64), done: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

type pipeConn struct {
	peer *pipeConn
	recv chan protocol.Envelope
	done chan struct{}
	once sync.Once
}

func (c *pipeConn) Send(env protocol.Envelope) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.peer.recv <- env:
		return nil
	case <-c.done:
		return ErrConnClosed
	}
}

func (c *pipeConn) Recv() <-chan protocol.Envelope { return c.recv }
func (c *pipeConn) Done() <-chan struct{}          { return c.done }

func (c *pipeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	c.peer.once.Do(func() { close(c.peer.done) })
	return nil
}
