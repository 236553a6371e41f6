package relay

import (
	"crypto/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/meshwatch/meshwatch/internal/wire"
)

func newTestPeerID(t *testing.T) peer.ID {
	t.Helper()
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		t.Fatalf("derive peer id: %v", err)
	}
	return id
}

func newTestRelay() *Relay {
	return &Relay{rooms: make(map[string]roomEntry), hosts: make(map[peer.ID]string)}
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	r := newTestRelay()
	alice := newTestPeerID(t)

	resp := r.admit(alice, wire.InitRequest{Room: "movie-night", Password: "hunter2"})
	if resp.Status != wire.AdmissionOK {
		t.Fatalf("expected ok, got %+v", resp)
	}
	if resp.HostPeerID != "" {
		t.Fatalf("expected the first joiner to have no host peer id, got %q", resp.HostPeerID)
	}
	if r.RoomCount() != 1 {
		t.Fatalf("expected one room tracked, got %d", r.RoomCount())
	}
}

func TestSecondJoinerWithCorrectPasswordGetsHostID(t *testing.T) {
	r := newTestRelay()
	alice := newTestPeerID(t)
	bob := newTestPeerID(t)

	r.admit(alice, wire.InitRequest{Room: "movie-night", Password: "hunter2"})
	resp := r.admit(bob, wire.InitRequest{Room: "movie-night", Password: "hunter2"})

	if resp.Status != wire.AdmissionOK {
		t.Fatalf("expected ok, got %+v", resp)
	}
	if resp.HostPeerID != alice.String() {
		t.Fatalf("expected host peer id %s, got %s", alice, resp.HostPeerID)
	}
}

func TestWrongPasswordIsRefused(t *testing.T) {
	r := newTestRelay()
	alice := newTestPeerID(t)
	bob := newTestPeerID(t)

	r.admit(alice, wire.InitRequest{Room: "movie-night", Password: "hunter2"})
	resp := r.admit(bob, wire.InitRequest{Room: "movie-night", Password: "wrong"})

	if resp.Status != wire.AdmissionErr {
		t.Fatalf("expected refusal, got %+v", resp)
	}
}

func TestHostDisconnectForgetsRoom(t *testing.T) {
	r := newTestRelay()
	alice := newTestPeerID(t)

	r.admit(alice, wire.InitRequest{Room: "movie-night", Password: "hunter2"})
	r.closeNode(alice)

	if r.RoomCount() != 0 {
		t.Fatalf("expected the room to be forgotten, got %d rooms", r.RoomCount())
	}

	bob := newTestPeerID(t)
	resp := r.admit(bob, wire.InitRequest{Room: "movie-night", Password: "anything"})
	if resp.Status != wire.AdmissionOK || resp.HostPeerID != "" {
		t.Fatalf("expected bob to become the new host of the reopened room, got %+v", resp)
	}
}

func TestNonHostDisconnectLeavesRoomIntact(t *testing.T) {
	r := newTestRelay()
	alice := newTestPeerID(t)
	bob := newTestPeerID(t)

	r.admit(alice, wire.InitRequest{Room: "movie-night", Password: "hunter2"})
	r.admit(bob, wire.InitRequest{Room: "movie-night", Password: "hunter2"})

	r.closeNode(bob)

	if r.RoomCount() != 1 {
		t.Fatalf("expected the room to survive a non-host disconnect, got %d rooms", r.RoomCount())
	}
}
