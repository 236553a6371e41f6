package core

import (
	"context"
	"fmt"
	"time"

	"github.com/meshwatch/meshwatch/internal/communicator"
	"github.com/meshwatch/meshwatch/internal/filedb"
	"github.com/meshwatch/meshwatch/internal/model"
	"github.com/meshwatch/meshwatch/internal/player"
)

// Run loops until PlayerExit or ctx is cancelled, awaiting the first
// ready of five sources on every iteration and applying its handler to
// completion before the next event is considered. No handler here may
// suspend: all waiting happens in the select below.
func (m *Model) Run(ctx context.Context) {
	pace := NewPacemaker(HeartbeatInterval)
	defer pace.Stop()

	for m.running {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-m.comm.Incoming():
			if !ok {
				continue
			}
			m.handleIncoming(msg)

		case ev, ok := <-m.player.Event():
			if !ok {
				continue
			}
			m.handlePlayerEvent(ctx, ev)

		case ev, ok := <-m.ui.Event():
			if !ok {
				continue
			}
			m.handleUIEvent(ev)

		case <-pace.C():
			m.handleHeartbeat()

		case ev, ok := <-m.database.Event():
			if !ok {
				continue
			}
			m.handleDatabaseEvent(ev)
		}
	}
}

func (m *Model) handleIncoming(msg communicator.Message) {
	switch msg.Kind {
	case communicator.KindJoin:
		m.handleJoin(msg.Join)
	case communicator.KindPause:
		m.player.Underlying().Pause()
	case communicator.KindStart:
		m.player.Underlying().Start()
	case communicator.KindCachePause:
		m.player.Underlying().Pause()
	case communicator.KindSeek:
		m.handleSeek(msg.Seek)
	case communicator.KindPlaybackSpeed:
		if msg.PlaybackSpeed != nil {
			m.player.SetSpeed(msg.PlaybackSpeed.Speed)
		}
	case communicator.KindSelect:
		m.handleRemoteSelect(msg.Select)
	case communicator.KindPlaylist:
		m.handleRemotePlaylist(msg.Playlist)
	case communicator.KindVideoStatus:
		m.handleVideoStatus(msg.VideoStatus)
	case communicator.KindUserStatus:
		m.handleUserStatus(msg.UserStatus)
	case communicator.KindUserStatusList:
		m.handleUserStatusList(msg.UserStatusList)
	case communicator.KindUserMessage:
		if msg.UserMessage != nil {
			m.ui.SetPlayerMessage(fmt.Sprintf("%s: %s", msg.UserMessage.Username, msg.UserMessage.Message))
		}
	case communicator.KindServerMessage:
		if msg.ServerMessage != nil {
			m.ui.SetPlayerMessage(msg.ServerMessage.Message)
		}
	case communicator.KindChunkRequest:
		log.Debugw("chunk request received, direct streaming is not implemented", "kind", msg.Kind)
	default:
		log.Warnw("unrecognized message kind", "kind", msg.Kind)
	}
}

func (m *Model) handleJoin(join *communicator.Join) {
	if join == nil {
		return
	}
	status := UserStatus{Name: join.Username}
	m.users.Insert(status)
	m.ui.SetUserList(m.users)
}

func (m *Model) handleSeek(seek *communicator.SeekMsg) {
	if seek == nil {
		return
	}
	m.player.Underlying().SetPosition(seek.Position())
}

// handleRemoteSelect applies an incoming Select: if the video is not in
// the current playlist, playing becomes none, the player is unloaded, and
// the UI is notified of none — matching the select-with-unknown-video
// scenario.
func (m *Model) handleRemoteSelect(sel *communicator.SelectMsg) {
	if sel == nil {
		return
	}
	video := sel.VideoPtr()
	if video == nil {
		m.playlist.Unload()
		m.player.Underlying().UnloadVideo()
		m.ui.SetVideoChange(nil)
		return
	}
	m.playlist.Select(*video)
	if _, ok := m.playlist.CurrentVideo(); !ok {
		m.player.Underlying().UnloadVideo()
		m.ui.SetVideoChange(nil)
		return
	}
	m.player.Underlying().LoadVideo(*video, sel.Position(), m.database.AllFiles())
	m.ui.SetVideoChange(video)
}

func (m *Model) handleRemotePlaylist(pl *communicator.PlaylistMsg) {
	if pl == nil {
		return
	}
	m.playlist.Replace(pl.Videos())
	m.ui.SetPlaylist(m.playlist.Playlist())
}

// handleVideoStatus reconciles local playback toward the host's reported
// position: the playback-sync wrapper absorbs the drift rather than
// snapping immediately.
func (m *Model) handleVideoStatus(vs *communicator.VideoStatus) {
	if vs == nil {
		return
	}
	if vs.Speed != 0 && vs.Speed != m.player.HostSpeed() {
		m.player.SetSpeed(vs.Speed)
	}
	if pos := vs.PositionPtr(); pos != nil {
		m.player.Reconcile(*pos)
	}
}

func (m *Model) handleUserStatus(us *communicator.UserStatus) {
	if us == nil {
		return
	}
	status := UserStatus{Name: us.Username, Ready: us.Ready}
	m.users.Replace(status)
	m.ui.SetUserUpdate(status)
}

func (m *Model) handleUserStatusList(list *communicator.UserStatusList) {
	if list == nil {
		return
	}
	m.users = NewUserList(list.Room)
	for _, u := range list.Users {
		m.users.Insert(UserStatus{Name: u.Username, Ready: u.Ready})
	}
	m.ui.SetUserList(m.users)
}

func (m *Model) handlePlayerEvent(ctx context.Context, ev player.Event) {
	switch ev.Kind {
	case player.EventFileEnd:
		m.handleFileEnd(ctx, ev.Video)
	case player.EventPositionChange:
		m.handlePositionChange(ev.Position)
	case player.EventPlayerExit:
		m.running = false
		m.ui.Abort()
	}
}

// handleFileEnd implements the end-of-file advance scenario: a stale
// end-of-file for a video that is no longer current is logged and
// ignored; otherwise the playlist advances, the next video (if any) is
// loaded at position zero, the UI is notified, the playlist is persisted,
// and a Select message is sent to the room.
func (m *Model) handleFileEnd(ctx context.Context, ended model.Video) {
	current, ok := m.playlist.CurrentVideo()
	if !ok || !current.Equal(ended) {
		log.Warnw("file-end for a video that is not current, ignoring", "ended", ended.DisplayName())
		return
	}

	next, hasNext := m.playlist.AdvanceToNext()
	var selected *model.Video
	if hasNext {
		m.player.Underlying().LoadVideo(next, 0, m.database.AllFiles())
		m.ui.SetVideoChange(&next)
		selected = &next
	} else {
		m.player.Underlying().UnloadVideo()
		m.ui.SetVideoChange(nil)
	}

	if err := m.store.Save(ctx, m.room, m.playlist); err != nil {
		log.Warnw("failed to persist playlist after advance", "room", m.room, "error", err)
	}

	m.comm.Send(communicator.Message{
		Kind:   communicator.KindSelect,
		Select: communicator.NewSelectMsg(m.self.Name, selected, 0),
	})
}

func (m *Model) handlePositionChange(pos time.Duration) {
	video, ok := m.player.Underlying().PlayingVideo()
	if !ok {
		return
	}
	m.comm.Send(communicator.Message{
		Kind: communicator.KindSeek,
		Seek: communicator.NewSeekMsg(m.self.Name, &video, pos),
	})
}

func (m *Model) handleUIEvent(ev UIEvent) {
	switch ev.Kind {
	default:
		log.Debugw("ui event", "kind", ev.Kind)
	}
}

// handleHeartbeat emits one VideoStatus telemetry message describing the
// player's current state, matching the heartbeat-wiring scenario.
func (m *Model) handleHeartbeat() {
	video, hasVideo := m.player.Underlying().PlayingVideo()
	position, hasPosition := m.player.Underlying().GetPosition()

	vs := &communicator.VideoStatus{
		Speed:          m.player.HostSpeed(),
		Paused:         m.player.Underlying().IsPaused(),
		FileLoaded:     m.player.Underlying().VideoLoaded(),
		CacheAvailable: m.player.Underlying().CacheAvailable(),
	}
	if hasVideo {
		vs.SetVideo(&video)
	}
	if hasPosition {
		vs.SetPosition(position)
	}

	m.comm.Send(communicator.Message{Kind: communicator.KindVideoStatus, VideoStatus: vs})
}

func (m *Model) handleDatabaseEvent(ev filedb.Event) {
	switch ev.Kind {
	case filedb.EventUpdateProgress:
		m.ui.SetFileDatabaseStatus(ev.Ratio, false)
	case filedb.EventUpdateComplete:
		m.ui.SetFileDatabaseStatus(1.0, true)
		m.ui.SetFileDatabase(m.database.AllFiles())
	}
}
