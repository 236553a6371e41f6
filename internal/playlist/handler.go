// Package playlist implements the current-video state machine and its
// on-disk persistence.
package playlist

import "github.com/meshwatch/meshwatch/internal/model"

// Handler tracks the playlist and which index, if any, is currently
// playing. playing is always either nil or a valid index into playlist.
type Handler struct {
	playlist model.Playlist
	playing  *int
}

// NewHandler returns an empty handler with nothing playing.
func NewHandler() *Handler {
	return &Handler{}
}

// CurrentVideo returns the playing video, or false if nothing is playing.
func (h *Handler) CurrentVideo() (model.Video, bool) {
	if h.playing == nil {
		return model.Video{}, false
	}
	return h.playlist[*h.playing], true
}

// Playlist returns the handler's playlist. The caller must not mutate it.
func (h *Handler) Playlist() model.Playlist { return h.playlist }

// PlayingIndex returns the current index, or -1 if nothing is playing.
func (h *Handler) PlayingIndex() int {
	if h.playing == nil {
		return -1
	}
	return *h.playing
}

// Select sets the current video to the first playlist entry equal to
// video. If video is absent, playing is cleared.
func (h *Handler) Select(video model.Video) {
	idx := h.playlist.FindIndex(video)
	if idx < 0 {
		h.playing = nil
		return
	}
	h.playing = &idx
}

// Unload clears the current video without touching the playlist.
func (h *Handler) Unload() {
	h.playing = nil
}

// AdvanceToNext increments playing and returns the new current video.
// Stepping past the end clears playing and returns (zero, false). Calling
// this with nothing playing is a no-op that returns (zero, false).
func (h *Handler) AdvanceToNext() (model.Video, bool) {
	if h.playing == nil {
		return model.Video{}, false
	}
	next := *h.playing + 1
	if next >= len(h.playlist) {
		h.playing = nil
		return model.Video{}, false
	}
	h.playing = &next
	return h.playlist[next], true
}

// Replace sets a new playlist, preserving the currently playing video by
// re-locating it by equality. If the current video is absent from the new
// playlist, playing becomes nil.
func (h *Handler) Replace(newPlaylist model.Playlist) {
	current, had := h.CurrentVideo()
	h.playlist = newPlaylist.Clone()
	if !had {
		h.playing = nil
		return
	}
	idx := h.playlist.FindIndex(current)
	if idx < 0 {
		h.playing = nil
		return
	}
	h.playing = &idx
}
