package communicator

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/meshwatch/meshwatch/internal/wire"
)

// NewLibp2p returns a Communicator whose transport dials rooms over h,
// the peer's long-lived libp2p host.
func NewLibp2p(h host.Host) *Communicator {
	return &Communicator{
		conn: newDisconnected(nil),
		dial: func(ctx context.Context, endpoint EndpointInfo) (roomTransport, error) {
			return dialRoom(ctx, h, endpoint)
		},
	}
}

// dialRoom performs the admission handshake against the relay and
// returns either a direct stream to the existing host or, if this peer
// is admitted as host, a transport that fans in/out every joining
// peer's stream.
func dialRoom(ctx context.Context, h host.Host, endpoint EndpointInfo) (roomTransport, error) {
	relayAddr, err := ma.NewMultiaddr(endpoint.RelayAddr)
	if err != nil {
		return nil, fmt.Errorf("parse relay address: %w", err)
	}
	relayInfo, err := peer.AddrInfoFromP2pAddr(relayAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve relay peer info: %w", err)
	}
	if err := h.Connect(ctx, *relayInfo); err != nil {
		return nil, fmt.Errorf("connect to relay: %w", err)
	}

	admit, err := h.NewStream(ctx, relayInfo.ID, wire.AdmissionProtoID)
	if err != nil {
		return nil, fmt.Errorf("open admission stream: %w", err)
	}
	defer admit.Close()

	enc := cbor.NewEncoder(admit)
	if err := enc.Encode(wire.InitRequest{Room: endpoint.Room, Password: endpoint.Password}); err != nil {
		return nil, fmt.Errorf("send admission request: %w", err)
	}

	var resp wire.InitResponse
	if err := cbor.NewDecoder(admit).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read admission response: %w", err)
	}
	if resp.Status != wire.AdmissionOK {
		return nil, fmt.Errorf("room admission refused: %s", resp.Reason)
	}

	if resp.HostPeerID == "" {
		return newHostTransport(h), nil
	}

	hostID, err := peer.Decode(resp.HostPeerID)
	if err != nil {
		return nil, fmt.Errorf("decode host peer id: %w", err)
	}
	s, err := h.NewStream(ctx, hostID, wire.RoomProtoID)
	if err != nil {
		return nil, fmt.Errorf("open room stream to host: %w", err)
	}
	st := newStreamTransport(s)

	join := Message{Kind: KindJoin, Join: &Join{Room: endpoint.Room, Password: endpoint.Password, Username: endpoint.Username}}
	if err := st.Send(join); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}
	return st, nil
}

// streamTransport wraps one libp2p stream with a CBOR record codec. It
// backs the non-host side of a room connection.
type streamTransport struct {
	stream network.Stream
	enc    *cbor.Encoder
	dec    *cbor.Decoder

	sendMu sync.Mutex
}

func newStreamTransport(s network.Stream) *streamTransport {
	return &streamTransport{stream: s, enc: cbor.NewEncoder(s), dec: cbor.NewDecoder(s)}
}

func (t *streamTransport) Recv(ctx context.Context) (Message, error) {
	type result struct {
		msg Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		var msg Message
		err := t.dec.Decode(&msg)
		done <- result{msg: msg, err: err}
	}()
	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		_ = t.stream.Close()
		return Message{}, ctx.Err()
	}
}

func (t *streamTransport) Send(msg Message) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.enc.Encode(msg)
}

func (t *streamTransport) Close() error {
	return t.stream.Close()
}

// hostTransport backs the host side of a room: every admitted peer opens
// its own stream to the RoomProtoID handler, and the host fans incoming
// messages from all of them into one channel while fanning sends out to
// all of them.
type hostTransport struct {
	host host.Host

	mu      sync.Mutex
	streams map[network.Stream]*streamTransport
	closed  bool

	incoming chan Message
}

func newHostTransport(h host.Host) *hostTransport {
	t := &hostTransport{
		host:     h,
		streams:  make(map[network.Stream]*streamTransport),
		incoming: make(chan Message, 64),
	}
	h.SetStreamHandler(wire.RoomProtoID, t.accept)
	return t
}

func (t *hostTransport) accept(s network.Stream) {
	st := newStreamTransport(s)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = s.Close()
		return
	}
	t.streams[s] = st
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			delete(t.streams, s)
			t.mu.Unlock()
		}()
		for {
			msg, err := st.Recv(context.Background())
			if err != nil {
				return
			}
			t.incoming <- msg
		}
	}()
}

func (t *hostTransport) Recv(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.incoming:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Send broadcasts msg to every peer currently connected to this room.
// A per-peer send failure drops that peer's stream but does not fail
// the broadcast as a whole.
func (t *hostTransport) Send(msg Message) error {
	t.mu.Lock()
	streams := make([]*streamTransport, 0, len(t.streams))
	for _, st := range t.streams {
		streams = append(streams, st)
	}
	t.mu.Unlock()

	for _, st := range streams {
		if err := st.Send(msg); err != nil {
			_ = st.Close()
		}
	}
	return nil
}

func (t *hostTransport) Close() error {
	t.host.RemoveStreamHandler(wire.RoomProtoID)

	t.mu.Lock()
	t.closed = true
	streams := t.streams
	t.streams = nil
	t.mu.Unlock()

	for s := range streams {
		_ = s.Close()
	}
	return nil
}
