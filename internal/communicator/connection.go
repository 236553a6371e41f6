package communicator

import (
	"context"
	"time"
)

// RECONNECT_INTERVAL / CONNECT_TIMEOUT govern the connection state
// machine below.
const (
	ReconnectInterval = 2 * time.Second
	ConnectTimeout    = 5 * time.Second
)

// EndpointInfo names the room a communicator connects to.
type EndpointInfo struct {
	RelayAddr string
	Room      string
	Password  string
	Username  string
}

// roomTransport is the connected-state transport: a framed, bidirectional
// message stream to the room. The libp2p-backed implementation lives in
// transport.go; tests substitute a fake.
type roomTransport interface {
	Recv(ctx context.Context) (Message, error)
	Send(Message) error
	Close() error
}

// dialFunc opens a roomTransport to endpoint, honoring ctx for
// cancellation/timeout. Swappable in tests.
type dialFunc func(ctx context.Context, endpoint EndpointInfo) (roomTransport, error)

type connKind int

const (
	connDisconnected connKind = iota
	connConnecting
	connConnected
)

// connResult is delivered once by the background dial goroutine started
// on entering Connecting.
type connResult struct {
	transport roomTransport
	err       error
}

// connection is the Disconnected/Connecting/Connected state machine.
// Exactly one of its state-specific fields is meaningful at a time,
// selected by kind.
type connection struct {
	kind connKind

	// Disconnected
	disconnectedAt time.Time
	reason         error

	// Connecting
	result chan connResult

	// Connected
	transport roomTransport
}

func newDisconnected(reason error) connection {
	return connection{kind: connDisconnected, disconnectedAt: time.Now(), reason: reason}
}

// startConnecting launches dial in the background and returns the
// Connecting state tracking it.
func startConnecting(ctx context.Context, dial dialFunc, endpoint EndpointInfo) connection {
	result := make(chan connResult, 1)
	go func() {
		dialCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
		defer cancel()
		t, err := dial(dialCtx, endpoint)
		result <- connResult{transport: t, err: err}
	}()
	return connection{kind: connConnecting, result: result}
}

// step advances the state machine by exactly one transition and,
// when it produces a message for the core to see, returns it with ok
// true. It never returns ok true without also returning the successor
// state to store.
func (c connection) step(ctx context.Context, dial dialFunc, endpoint EndpointInfo) (connection, Message, bool) {
	switch c.kind {
	case connDisconnected:
		elapsed := time.Since(c.disconnectedAt)
		remaining := ReconnectInterval - elapsed
		if remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return c, Message{}, false
			}
		}
		reason := c.reason
		next := startConnecting(ctx, dial, endpoint)
		if reason != nil {
			return next, Message{Kind: KindServerMessage, ServerMessage: &ServerMessage{Message: reason.Error()}}, true
		}
		return next, Message{}, false

	case connConnecting:
		select {
		case res := <-c.result:
			if res.err != nil {
				return newDisconnected(res.err), Message{}, false
			}
			return connection{kind: connConnected, transport: res.transport}, Message{}, false
		case <-ctx.Done():
			return c, Message{}, false
		}

	case connConnected:
		msg, err := c.transport.Recv(ctx)
		if err != nil {
			_ = c.transport.Close()
			return newDisconnected(err), Message{}, false
		}
		return c, msg, true
	}
	return c, Message{}, false
}

// send delivers msg over the Connected transport. On failure the
// connection is downgraded to Disconnected with the send error as
// reason, matching the source's fire-and-forget outgoing send contract.
func (c connection) send(msg Message) connection {
	if c.kind != connConnected {
		return c
	}
	if err := c.transport.Send(msg); err != nil {
		_ = c.transport.Close()
		return newDisconnected(err)
	}
	return c
}
