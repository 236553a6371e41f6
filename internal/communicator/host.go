package communicator

import (
	"context"
	"fmt"

	libp2p "github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
)

const mdnsTag = "meshwatch-mdns"

// mdnsNotifee connects to any peer mDNS discovers on the LAN, mirroring
// the teacher's own LAN-discovery idiom.
type mdnsNotifee struct {
	h host.Host
}

func (n *mdnsNotifee) HandlePeerFound(pi peer.AddrInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()
	_ = n.h.Connect(ctx, pi)
}

// NewPeerHost builds the libp2p host a peer binary dials rooms through:
// TCP and QUIC, a static relay for circuit reservations and
// hole-punching, and LAN peer discovery via mDNS. relayAddr is the
// configured relay's multiaddr; an unparseable address disables the
// relay-client options but still returns a usable (LAN-only) host.
func NewPeerHost(priv crypto.PrivKey, relayAddr string) (host.Host, error) {
	opts := []libp2p.Option{
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(
			"/ip4/0.0.0.0/tcp/0",
			"/ip4/0.0.0.0/udp/0/quic-v1",
		),
	}

	if relayInfo, err := relayAddrInfo(relayAddr); err == nil {
		opts = append(opts,
			libp2p.EnableRelay(),
			libp2p.EnableHolePunching(),
			libp2p.EnableAutoRelayWithStaticRelays([]peer.AddrInfo{*relayInfo}),
		)
	} else {
		log.Warnw("relay address not usable, starting without relay-client options", "relay", relayAddr, "error", err)
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build peer host: %w", err)
	}

	md := mdns.NewMdnsService(h, mdnsTag, &mdnsNotifee{h: h})
	if err := md.Start(); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("start mdns discovery: %w", err)
	}

	return h, nil
}

func relayAddrInfo(relayAddr string) (*peer.AddrInfo, error) {
	addr, err := ma.NewMultiaddr(relayAddr)
	if err != nil {
		return nil, fmt.Errorf("parse relay address: %w", err)
	}
	return peer.AddrInfoFromP2pAddr(addr)
}
