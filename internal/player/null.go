package player

import (
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/meshwatch/meshwatch/internal/model"
)

var log = logging.Logger("player")

// NullPlayer is a MediaPlayer that does nothing: no embedded player
// binding is provided (see the module's MediaPlayer contract), so the
// peer binary links against this stand-in to run the event loop and
// exercise the whole sync path without ever rendering a frame.
type NullPlayer struct {
	video   model.Video
	loaded  bool
	paused  bool
	speed   float64
	pos     time.Duration
	hasPos  bool
	events  chan Event
}

// NewNullPlayer returns a NullPlayer at 1.0 speed with nothing loaded.
func NewNullPlayer() *NullPlayer {
	return &NullPlayer{speed: 1.0, events: make(chan Event)}
}

func (p *NullPlayer) Start() {
	p.paused = false
	log.Debugw("start")
}

func (p *NullPlayer) Pause() {
	p.paused = true
	log.Debugw("pause")
}

func (p *NullPlayer) IsPaused() bool { return p.paused }

func (p *NullPlayer) SetSpeed(speed float64) {
	p.speed = speed
	log.Debugw("set speed", "speed", speed)
}

func (p *NullPlayer) GetSpeed() float64 { return p.speed }

func (p *NullPlayer) SetPosition(pos time.Duration) {
	p.pos, p.hasPos = pos, true
	log.Debugw("set position", "position", pos)
}

func (p *NullPlayer) GetPosition() (time.Duration, bool) { return p.pos, p.hasPos }

// CacheAvailable always reports true: with no real player there is
// nothing to cache and nothing to wait on.
func (p *NullPlayer) CacheAvailable() bool { return true }

func (p *NullPlayer) LoadVideo(video model.Video, position time.Duration, _ model.FileStore) {
	p.video, p.loaded = video, true
	p.pos, p.hasPos = position, true
	log.Infow("load video", "video", video.DisplayName(), "position", position)
}

func (p *NullPlayer) UnloadVideo() {
	p.loaded = false
	p.video = model.Video{}
	log.Debugw("unload video")
}

func (p *NullPlayer) PlayingVideo() (model.Video, bool) { return p.video, p.loaded }

func (p *NullPlayer) VideoLoaded() bool { return p.loaded }

// Event never produces anything: with nothing actually playing there is
// no file-end, position-change, or exit to report.
func (p *NullPlayer) Event() <-chan Event { return p.events }
