// Package communicator maintains the logical session to a room through
// the relay: connection state machine, admission handshake, message
// vocabulary, and the libp2p transport beneath it.
package communicator

import (
	"context"
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("communicator")

// Communicator is one of the core event loop's five sources. Incoming
// delivers messages as they arrive; Send is fire-and-forget from the
// caller's perspective, matching the source state machine.
type Communicator struct {
	mu       sync.Mutex
	conn     connection
	endpoint EndpointInfo
	dial     dialFunc

	incoming chan Message
	cancel   context.CancelFunc
	done     chan struct{}
}

// newWithDialer is used by tests to substitute a fake transport dialer.
func newWithDialer(dial dialFunc) *Communicator {
	return &Communicator{conn: newDisconnected(nil), dial: dial}
}

// Connect (re)starts the session toward endpoint, replacing any prior
// connection.
func (c *Communicator) Connect(endpoint EndpointInfo) {
	c.mu.Lock()
	prevCancel := c.cancel
	prevDone := c.done
	c.mu.Unlock()
	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	c.mu.Lock()
	c.endpoint = endpoint
	ctx, cancel := context.WithCancel(context.Background())
	c.conn = startConnecting(ctx, c.dial, endpoint)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.incoming = make(chan Message, 16)
	c.mu.Unlock()

	go c.run(ctx)
}

// Send delivers msg if currently connected; otherwise it is silently
// dropped, matching the source's best-effort outgoing contract.
func (c *Communicator) Send(msg Message) {
	c.mu.Lock()
	c.conn = c.conn.send(msg)
	c.mu.Unlock()
}

// Incoming is the channel the core event loop selects on.
func (c *Communicator) Incoming() <-chan Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incoming == nil {
		return nil
	}
	return c.incoming
}

// Close tears down any in-flight connection attempt or transport.
func (c *Communicator) Close() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Communicator) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		endpoint := c.endpoint
		dial := c.dial
		c.mu.Unlock()

		next, msg, ok := conn.step(ctx, dial, endpoint)
		if next.kind == connDisconnected && conn.kind != connDisconnected {
			log.Warnw("room connection lost", "reason", next.reason)
		}

		c.mu.Lock()
		c.conn = next
		c.mu.Unlock()

		if !ok {
			continue
		}
		select {
		case c.incoming <- msg:
		case <-ctx.Done():
			return
		}
	}
}
