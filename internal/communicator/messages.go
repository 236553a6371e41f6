package communicator

import (
	"time"

	"github.com/google/uuid"

	"github.com/meshwatch/meshwatch/internal/model"
)

// Kind tags the closed message union on the wire. CBOR encodes it as the
// `kind` field of every record so a decoder can dispatch before knowing
// the rest of the shape.
type Kind string

const (
	KindJoin           Kind = "join"
	KindPause          Kind = "pause"
	KindStart          Kind = "start"
	KindCachePause     Kind = "cache_pause"
	KindSeek           Kind = "seek"
	KindPlaybackSpeed  Kind = "playback_speed"
	KindSelect         Kind = "select"
	KindPlaylist       Kind = "playlist"
	KindVideoStatus    Kind = "video_status"
	KindUserStatus     Kind = "user_status"
	KindUserStatusList Kind = "user_status_list"
	KindUserMessage    Kind = "user_message"
	KindServerMessage  Kind = "server_message"
	KindChunkRequest   Kind = "chunk_request"
)

// wireVideo is model.Video's wire shape. model.Video keeps its fields
// unexported, so every boundary that needs to serialize it (here, and
// internal/playlist's YAML snapshot) defines its own small conversion
// pair rather than exporting fields just for a codec's benefit.
type wireVideo struct {
	Kind model.VideoKind `cbor:"kind"`
	Name string          `cbor:"name,omitempty"`
	URL  string           `cbor:"url,omitempty"`
}

func toWireVideo(v model.Video) wireVideo {
	return wireVideo{Kind: v.Kind(), Name: v.Name(), URL: v.URL()}
}

func (w wireVideo) toVideo() model.Video {
	if w.Kind == model.VideoURL {
		return model.NewURLVideo(w.URL)
	}
	return model.NewFileVideo(w.Name)
}

func toWireVideoPtr(v *model.Video) *wireVideo {
	if v == nil {
		return nil
	}
	w := toWireVideo(*v)
	return &w
}

func (w *wireVideo) toVideoPtr() *model.Video {
	if w == nil {
		return nil
	}
	v := w.toVideo()
	return &v
}

// Durations go on the wire as milliseconds, not time.Duration's raw
// nanoseconds, so peers speaking the wire format independently of this
// Go type agree on the unit.
func toWireMillis(d time.Duration) int64 { return d.Milliseconds() }

func fromWireMillis(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

func toWirePlaylist(p model.Playlist) []wireVideo {
	out := make([]wireVideo, len(p))
	for i, v := range p {
		out[i] = toWireVideo(v)
	}
	return out
}

func fromWirePlaylist(w []wireVideo) model.Playlist {
	out := make(model.Playlist, len(w))
	for i, v := range w {
		out[i] = v.toVideo()
	}
	return out
}

// Message is the closed tagged union exchanged over a room connection.
// Only the field matching Kind is meaningful; the rest are zero.
type Message struct {
	Kind Kind `cbor:"kind"`

	Join           *Join           `cbor:"join,omitempty"`
	Actor          *Actor          `cbor:"actor,omitempty"`
	Seek           *SeekMsg        `cbor:"seek,omitempty"`
	PlaybackSpeed  *PlaybackSpeed  `cbor:"playback_speed,omitempty"`
	Select         *SelectMsg      `cbor:"select,omitempty"`
	Playlist       *PlaylistMsg    `cbor:"playlist,omitempty"`
	VideoStatus    *VideoStatus    `cbor:"video_status,omitempty"`
	UserStatus     *UserStatus     `cbor:"user_status,omitempty"`
	UserStatusList *UserStatusList `cbor:"user_status_list,omitempty"`
	UserMessage    *UserMessage    `cbor:"user_message,omitempty"`
	ServerMessage  *ServerMessage  `cbor:"server_message,omitempty"`
	ChunkRequest   *ChunkRequest   `cbor:"chunk_request,omitempty"`
}

// Actor carries only the username asserting a fire-and-forget action
// (Pause, Start, CachePause).
type Actor struct {
	Actor string `cbor:"actor"`
}

type Join struct {
	Room     string `cbor:"room"`
	Password string `cbor:"password"`
	Username string `cbor:"username"`
}

type SeekMsg struct {
	Actor      string     `cbor:"actor"`
	Video      *wireVideo `cbor:"video,omitempty"`
	PositionMs int64      `cbor:"position"`
}

// NewSeekMsg builds a Seek record from a domain model.Video pointer.
func NewSeekMsg(actor string, video *model.Video, position time.Duration) *SeekMsg {
	return &SeekMsg{Actor: actor, Video: toWireVideoPtr(video), PositionMs: toWireMillis(position)}
}

// VideoPtr returns s's video as a domain model.Video pointer, or nil.
func (s *SeekMsg) VideoPtr() *model.Video { return s.Video.toVideoPtr() }

// Position returns s's wire position as a time.Duration.
func (s *SeekMsg) Position() time.Duration { return fromWireMillis(s.PositionMs) }

type PlaybackSpeed struct {
	Actor string  `cbor:"actor"`
	Speed float64 `cbor:"speed"`
}

// SelectMsg reports the actor's current video; Video is nil when the
// actor cleared its selection.
type SelectMsg struct {
	Actor      string     `cbor:"actor"`
	Video      *wireVideo `cbor:"video,omitempty"`
	PositionMs int64      `cbor:"position"`
}

// NewSelectMsg builds a Select record from a domain model.Video pointer;
// a nil video encodes "selection cleared".
func NewSelectMsg(actor string, video *model.Video, position time.Duration) *SelectMsg {
	return &SelectMsg{Actor: actor, Video: toWireVideoPtr(video), PositionMs: toWireMillis(position)}
}

// VideoPtr returns s's video as a domain model.Video pointer, or nil.
func (s *SelectMsg) VideoPtr() *model.Video { return s.Video.toVideoPtr() }

// Position returns s's wire position as a time.Duration.
func (s *SelectMsg) Position() time.Duration { return fromWireMillis(s.PositionMs) }

type PlaylistMsg struct {
	Actor    string      `cbor:"actor"`
	Playlist []wireVideo `cbor:"playlist"`
}

// NewPlaylistMsg builds a Playlist record from a domain model.Playlist.
func NewPlaylistMsg(actor string, playlist model.Playlist) *PlaylistMsg {
	return &PlaylistMsg{Actor: actor, Playlist: toWirePlaylist(playlist)}
}

// Videos returns p's playlist as a domain model.Playlist.
func (p *PlaylistMsg) Videos() model.Playlist { return fromWirePlaylist(p.Playlist) }

// VideoStatus is the heartbeat telemetry record; see Pacemaker.
type VideoStatus struct {
	Video          *wireVideo `cbor:"video,omitempty"`
	PositionMs     *int64     `cbor:"position,omitempty"`
	Speed          float64    `cbor:"speed"`
	Paused         bool       `cbor:"paused"`
	FileLoaded     bool       `cbor:"file_loaded"`
	CacheAvailable bool       `cbor:"cache"`
}

// SetVideo stores video (nil clears it) in its wire shape.
func (v *VideoStatus) SetVideo(video *model.Video) { v.Video = toWireVideoPtr(video) }

// VideoPtr returns v's video as a domain model.Video pointer, or nil.
func (v *VideoStatus) VideoPtr() *model.Video { return v.Video.toVideoPtr() }

// SetPosition stores pos in its wire (millisecond) shape.
func (v *VideoStatus) SetPosition(pos time.Duration) {
	ms := toWireMillis(pos)
	v.PositionMs = &ms
}

// PositionPtr returns v's position as a domain time.Duration pointer, or
// nil when the heartbeat carried no position.
func (v *VideoStatus) PositionPtr() *time.Duration {
	if v.PositionMs == nil {
		return nil
	}
	d := fromWireMillis(*v.PositionMs)
	return &d
}

type UserStatus struct {
	Username string `cbor:"username"`
	Ready    bool   `cbor:"ready"`
}

type UserStatusList struct {
	Room  string       `cbor:"room"`
	Users []UserStatus `cbor:"users"`
}

type UserMessage struct {
	Username string `cbor:"username"`
	Message  string `cbor:"message"`
}

type ServerMessage struct {
	Message string `cbor:"message"`
}

// ChunkRequest is kept for wire compatibility; the byte-range direct
// streaming path it describes is not otherwise implemented.
type ChunkRequest struct {
	UUID  string    `cbor:"uuid"`
	Actor *string   `cbor:"actor,omitempty"`
	Video wireVideo `cbor:"video"`
	Range [2]int64  `cbor:"range"`
}

// NewChunkRequest builds a ChunkRequest for video's byte range
// [start, end), stamping it with a fresh random request id.
func NewChunkRequest(actor string, video model.Video, start, end int64) *ChunkRequest {
	return &ChunkRequest{
		UUID:  uuid.New().String(),
		Actor: &actor,
		Video: toWireVideo(video),
		Range: [2]int64{start, end},
	}
}
