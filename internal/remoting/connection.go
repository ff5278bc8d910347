package remoting

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/movierun/movie/internal/wire"
)

// ErrConnectionClosed is returned by Send/Ask once a Connection has
// disconnected, whether due to an explicit Close or an I/O error.
var ErrConnectionClosed = errors.New("remoting: connection closed")

// ErrRemoteDelivery is the failure mode for a pending ask whose connection
// was lost before a response arrived.
var ErrRemoteDelivery = errors.New("remoting: remote delivery failed")

// Connection owns one TCP socket to a remote peer: a write mutex (so Send
// calls from multiple goroutines interleave whole frames, never partial
// ones), a reader goroutine dispatching inbound frames to onMessage, and a
// pending-asks table keyed by correlation id for routing AskResponse frames
// back to their waiter.
type Connection struct {
	conn net.Conn

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
	asks   map[string]chan *wire.Envelope

	onMessage func(*wire.Envelope)

	closeOnce sync.Once
	doneCh    chan struct{}
}

// NewConnection wraps an already-dialed/accepted net.Conn, enabling
// TCP_NODELAY when the connection is a *net.TCPConn, and starts its reader
// goroutine. onMessage is invoked (on the reader goroutine) for every frame
// that isn't an AskResponse matched to a pending ask.
func NewConnection(conn net.Conn, onMessage func(*wire.Envelope)) *Connection {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	c := &Connection{
		conn:      conn,
		asks:      make(map[string]chan *wire.Envelope),
		onMessage: onMessage,
		doneCh:    make(chan struct{}),
	}

	go c.readLoop()

	return c
}

func (c *Connection) readLoop() {
	defer c.Close()

	for {
		env, err := wire.ReadFrame(c.conn)
		if err != nil {
			return
		}

		if env.Kind == wire.KindAskResponse {
			c.mu.Lock()
			ch, ok := c.asks[env.CorrelationID]
			if ok {
				delete(c.asks, env.CorrelationID)
			}
			c.mu.Unlock()

			if ok {
				ch <- env
				continue
			}
		}

		if c.onMessage != nil {
			c.onMessage(env)
		}
	}
}

// Send frames and writes env, holding the write mutex for the duration.
func (c *Connection) Send(env *wire.Envelope) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := wire.WriteFrame(c.conn, env); err != nil {
		c.Close()
		return fmt.Errorf("remoting: send failed: %w", err)
	}
	return nil
}

// Ask sends env (expected to be an AskRequest carrying a CorrelationID) and
// waits for the matching AskResponse or for ctx/timeout to elapse.
func (c *Connection) Ask(ctx context.Context, env *wire.Envelope, timeout time.Duration) (*wire.Envelope, error) {
	ch := make(chan *wire.Envelope, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	c.asks[env.CorrelationID] = ch
	c.mu.Unlock()

	if err := c.Send(env); err != nil {
		c.mu.Lock()
		delete(c.asks, env.CorrelationID)
		c.mu.Unlock()
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrRemoteDelivery
		}
		return resp, nil
	case <-timer.C:
		c.mu.Lock()
		delete(c.asks, env.CorrelationID)
		c.mu.Unlock()
		return nil, fmt.Errorf("remoting: ask timed out after %s", timeout)
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.asks, env.CorrelationID)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.doneCh:
		return nil, ErrRemoteDelivery
	}
}

// Close closes the underlying socket, fails every pending ask with
// ErrRemoteDelivery, and is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		pending := c.asks
		c.asks = make(map[string]chan *wire.Envelope)
		c.mu.Unlock()

		_ = c.conn.Close()
		close(c.doneCh)

		for _, ch := range pending {
			close(ch)
		}
	})
}

// IsClosed reports whether the connection has disconnected.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
