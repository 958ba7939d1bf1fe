package transport

import (
	"errors"
	"net"
	"sync"
	"time"
)

var (
	// ErrQueueFull means the peer does not drain its queue fast enough.
	ErrQueueFull = errors.New("transport: send queue full")
	// ErrClosing means the connection is being torn down.
	ErrClosing = errors.New("transport: connection closing")
)

// conn owns one client socket. The socket and its buffers are touched
// only by the connection's own read and write goroutines; everything
// else talks to the connection through Enqueue and Close.
type conn struct {
	sock    net.Conn
	out     chan []byte
	closing chan struct{}
	once    sync.Once
}

func newConn(sock net.Conn, queueDepth int) *conn {
	return &conn{
		sock:    sock,
		out:     make(chan []byte, queueDepth),
		closing: make(chan struct{}),
	}
}

// Enqueue appends an encoded line to the outbound queue. A full queue
// is a protocol violation by a stalled peer, the caller reacts by
// closing the connection.
func (c *conn) Enqueue(msg []byte) error {
	select {
	case <-c.closing:
		return ErrClosing
	default:
	}
	select {
	case c.out <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close schedules teardown. It is safe to call from any goroutine and
// any number of times.
func (c *conn) Close() {
	c.once.Do(func() { close(c.closing) })
}

// writeLoop drains the outbound queue onto the socket. On teardown it
// flushes what is already queued, bounded by a short deadline, then
// closes the socket which in turn unblocks the read loop.
func (c *conn) writeLoop() {
	defer c.sock.Close()
	for {
		select {
		case msg := <-c.out:
			if _, err := c.sock.Write(msg); err != nil {
				c.Close()
				return
			}
		case <-c.closing:
			c.sock.SetWriteDeadline(time.Now().Add(time.Second))
			for {
				select {
				case msg := <-c.out:
					if _, err := c.sock.Write(msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}
