// Package relay implements the admission server that lets a peer become
// the host of a new room or locate the host of an existing one. It holds
// no session state beyond that mapping: actual room traffic flows
// peer-to-peer through a relayed circuit once admission succeeds.
package relay

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"golang.org/x/crypto/bcrypt"

	"github.com/meshwatch/meshwatch/internal/wire"
)

var log = logging.Logger("relay")

type roomEntry struct {
	hostID       peer.ID
	passwordHash string
}

// Relay tracks which peer hosts which room. A room exists for as long as
// its host stays connected; the host disconnecting forgets the room
// entirely, matching the no-persistence admission contract.
type Relay struct {
	host host.Host

	mu    sync.Mutex
	rooms map[string]roomEntry
	hosts map[peer.ID]string
}

// New wires the admission protocol and disconnect notifications onto h.
func New(h host.Host) *Relay {
	r := &Relay{
		host:  h,
		rooms: make(map[string]roomEntry),
		hosts: make(map[peer.ID]string),
	}
	h.SetStreamHandler(wire.AdmissionProtoID, r.handleAdmission)
	h.Network().Notify(&network.NotifyBundle{
		DisconnectedF: func(_ network.Network, c network.Conn) {
			r.closeNode(c.RemotePeer())
		},
	})
	return r
}

func (r *Relay) handleAdmission(s network.Stream) {
	defer s.Close()

	var req wire.InitRequest
	if err := cbor.NewDecoder(s).Decode(&req); err != nil {
		log.Warnw("malformed admission request", "peer", s.Conn().RemotePeer(), "error", err)
		return
	}

	resp := r.admit(s.Conn().RemotePeer(), req)
	if err := cbor.NewEncoder(s).Encode(resp); err != nil {
		log.Warnw("failed to send admission response", "peer", s.Conn().RemotePeer(), "error", err)
	}
}

// admit applies the admission rule for one Init request. It is free of
// libp2p stream I/O so it can be exercised directly in tests.
func (r *Relay) admit(requester peer.ID, req wire.InitRequest) wire.InitResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.rooms[req.Room]
	if !exists {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Warnw("password hash failed, storing plaintext fallback", "room", req.Room, "error", err)
			hash = []byte(req.Password)
		}
		r.rooms[req.Room] = roomEntry{hostID: requester, passwordHash: string(hash)}
		r.hosts[requester] = req.Room
		log.Infow("room created", "room", req.Room, "host", requester)
		return wire.InitResponse{Status: wire.AdmissionOK}
	}

	if bcrypt.CompareHashAndPassword([]byte(entry.passwordHash), []byte(req.Password)) != nil {
		return wire.InitResponse{Status: wire.AdmissionErr, Reason: "invalid password"}
	}

	if entry.hostID == requester {
		// The host itself reconnecting/re-asserting admission.
		return wire.InitResponse{Status: wire.AdmissionOK}
	}
	return wire.InitResponse{Status: wire.AdmissionOK, HostPeerID: entry.hostID.String()}
}

// closeNode forgets the room hosted by peerID, if any. Called both on
// disconnect notifications and directly by tests.
func (r *Relay) closeNode(peerID peer.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.hosts[peerID]
	if !ok {
		return
	}
	delete(r.rooms, room)
	delete(r.hosts, peerID)
	log.Infow("room forgotten", "room", room, "host", peerID)
}

// RoomCount reports how many rooms are currently held, for diagnostics.
func (r *Relay) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
