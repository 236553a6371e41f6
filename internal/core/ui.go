package core

import (
	"github.com/meshwatch/meshwatch/internal/model"
)

// UIEvent is the tagged union of user-originated actions a real UI would
// raise (toggling ready, selecting a video, sending chat, searching the
// library). The headless adapter never produces one; a rendering UI is
// out of scope here and would populate this type with its own variants.
type UIEvent struct {
	Kind UIEventKind
}

type UIEventKind int

const (
	// UIEventNone is never sent; it exists so the zero value of UIEvent
	// is not confused with a meaningful variant.
	UIEventNone UIEventKind = iota
)

// UserInterface is the contract the event loop holds the UI collaborator
// to: snapshot setters that push model state outward, plus an event
// source for user-originated actions and a shutdown hook.
type UserInterface interface {
	SetFileDatabase(store model.FileStore)
	SetFileDatabaseStatus(ratio float64, complete bool)
	SetPlaylist(playlist model.Playlist)
	SetVideoChange(video *model.Video)
	SetUserList(list *UserList)
	SetUserUpdate(user UserStatus)
	SetPlayerMessage(message string)
	Event() <-chan UIEvent
	Abort()
}

// Headless is the minimal UserInterface implementation that lets the peer
// binary link and run without any rendering layer: every setter logs its
// snapshot (player messages at info level, the rest at debug level) and
// Event() never produces anything.
type Headless struct {
	events chan UIEvent
}

// NewHeadless returns a Headless adapter. Both `--ui iced` and
// `--ui ratatui` resolve to this adapter since rendering is out of scope.
func NewHeadless() *Headless {
	return &Headless{events: make(chan UIEvent)}
}

func (h *Headless) SetFileDatabase(store model.FileStore) {
	log.Debugw("file database snapshot", "files", store.Len())
}

func (h *Headless) SetFileDatabaseStatus(ratio float64, complete bool) {
	log.Debugw("file database status", "ratio", ratio, "complete", complete)
}

func (h *Headless) SetPlaylist(playlist model.Playlist) {
	log.Debugw("playlist snapshot", "videos", len(playlist))
}

func (h *Headless) SetVideoChange(video *model.Video) {
	if video == nil {
		log.Debugw("video change", "video", nil)
		return
	}
	log.Debugw("video change", "video", video.DisplayName())
}

func (h *Headless) SetUserList(list *UserList) {
	log.Debugw("user list snapshot", "room", list.RoomName(), "users", list.Len())
}

func (h *Headless) SetUserUpdate(user UserStatus) {
	log.Debugw("user update", "name", user.Name, "ready", user.Ready)
}

func (h *Headless) SetPlayerMessage(message string) {
	log.Infow("player message", "message", message)
}

func (h *Headless) Event() <-chan UIEvent { return h.events }

func (h *Headless) Abort() {
	log.Infow("ui abort requested")
}
