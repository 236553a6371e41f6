// Package core wires the communicator, player, file database, playlist
// handler, and UI into the single-owner event loop that is the heart of
// a peer: a five-way select reconciling all five sources into one model,
// with no re-entrancy and per-source FIFO delivery.
package core

import (
	logging "github.com/ipfs/go-log/v2"

	"github.com/meshwatch/meshwatch/internal/communicator"
	"github.com/meshwatch/meshwatch/internal/config"
	"github.com/meshwatch/meshwatch/internal/filedb"
	"github.com/meshwatch/meshwatch/internal/player"
	"github.com/meshwatch/meshwatch/internal/playlist"
)

var log = logging.Logger("core")

// commLink is the subset of *communicator.Communicator the event loop
// depends on. Tests substitute a fake that records sent messages instead
// of driving a real libp2p connection.
type commLink interface {
	Incoming() <-chan communicator.Message
	Send(communicator.Message)
}

// Model is the single owner of all mutable peer state. Background
// collaborators never touch it directly; they communicate exclusively by
// producing events the loop awaits.
type Model struct {
	comm     commLink
	player   *player.Wrapper
	ui       UserInterface
	database *filedb.Database
	playlist *playlist.Handler
	store    *playlist.Store
	cfg      config.Config

	self     UserStatus
	room     string
	password string
	users    *UserList

	running bool
}

// New builds a Model from its collaborators, mirroring the construction
// sequence a peer binary performs once at startup: wrap the raw player,
// start with an empty playlist, and seed room/password/username from
// config.
func New(comm *communicator.Communicator, mp player.MediaPlayer, ui UserInterface, database *filedb.Database, store *playlist.Store, cfg config.Config) *Model {
	return newModel(comm, mp, ui, database, store, cfg)
}

// newModel is the shared constructor body; it accepts the narrower commLink
// interface so tests can pass a fake in place of a real Communicator.
func newModel(comm commLink, mp player.MediaPlayer, ui UserInterface, database *filedb.Database, store *playlist.Store, cfg config.Config) *Model {
	return &Model{
		comm:     comm,
		player:   player.NewWrapper(mp),
		ui:       ui,
		database: database,
		playlist: playlist.NewHandler(),
		store:    store,
		cfg:      cfg,
		self:     UserStatus{Name: cfg.Username},
		room:     cfg.Room,
		password: cfg.Password,
		users:    NewUserList(cfg.Room),
		running:  true,
	}
}

// Endpoint builds the connection endpoint the communicator dials,
// sourced entirely from the current config and room/password.
func (m *Model) Endpoint() communicator.EndpointInfo {
	return communicator.EndpointInfo{
		RelayAddr: m.cfg.Relay,
		Room:      m.room,
		Password:  m.password,
		Username:  m.self.Name,
	}
}

// RestorePlaylist loads the most recently saved playlist for the current
// room, if any, and applies it through Replace so any already-playing
// video (there is none at startup) would be preserved by equality.
func (m *Model) RestorePlaylist() {
	pl, _, ok := m.store.Restore(m.room)
	if !ok {
		return
	}
	m.playlist.Replace(pl)
	m.ui.SetPlaylist(m.playlist.Playlist())
}
