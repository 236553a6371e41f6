package player

import (
	"testing"
	"time"

	"github.com/meshwatch/meshwatch/internal/model"
)

// fakePlayer is a minimal in-memory MediaPlayer used only by tests.
type fakePlayer struct {
	position time.Duration
	speed    float64
	seeks    int
}

func newFakePlayer() *fakePlayer { return &fakePlayer{speed: 1.0} }

func (f *fakePlayer) Start()         {}
func (f *fakePlayer) Pause()         {}
func (f *fakePlayer) IsPaused() bool { return false }
func (f *fakePlayer) SetSpeed(s float64) {
	f.speed = s
}
func (f *fakePlayer) GetSpeed() float64 { return f.speed }
func (f *fakePlayer) SetPosition(p time.Duration) {
	f.position = p
	f.seeks++
}
func (f *fakePlayer) GetPosition() (time.Duration, bool)                        { return f.position, true }
func (f *fakePlayer) CacheAvailable() bool                                      { return true }
func (f *fakePlayer) LoadVideo(model.Video, time.Duration, model.FileStore)     {}
func (f *fakePlayer) UnloadVideo()                                             {}
func (f *fakePlayer) PlayingVideo() (model.Video, bool)                        { return model.Video{}, false }
func (f *fakePlayer) VideoLoaded() bool                                        { return true }
func (f *fakePlayer) Event() <-chan Event                                      { return make(chan Event) }

func TestReconcileWithinMinDelayRestoresSpeed(t *testing.T) {
	fp := newFakePlayer()
	fp.position = 10 * time.Second
	fp.speed = 1.3
	w := NewWrapper(fp)

	w.Reconcile(10 * time.Second)

	if fp.speed != 1.0 {
		t.Fatalf("expected speed restored to host_speed 1.0, got %v", fp.speed)
	}
	if fp.seeks != 0 {
		t.Fatal("expected no seek within min_delay")
	}
}

func TestReconcileHardSeekAtExactlyMaxDelay(t *testing.T) {
	fp := newFakePlayer()
	target := 10 * time.Second
	fp.position = target + maximumDelay
	w := NewWrapper(fp)

	w.Reconcile(target)

	if fp.seeks != 1 {
		t.Fatal("expected a hard seek at exactly target + max_delay")
	}
	if fp.position != target {
		t.Fatalf("expected seek to target, got %v", fp.position)
	}
}

func TestReconcileJustBelowMaxDelayNudgesInstead(t *testing.T) {
	fp := newFakePlayer()
	target := 10 * time.Second
	fp.position = target + maximumDelay - 1
	w := NewWrapper(fp)

	w.Reconcile(target)

	if fp.seeks != 0 {
		t.Fatal("expected no hard seek one nanosecond short of max_delay")
	}
}

func TestReconcileFarBehindSynthesizesPositionChange(t *testing.T) {
	fp := newFakePlayer()
	target := 10 * time.Second
	fp.position = target - maximumDelay
	w := NewWrapper(fp)

	w.Reconcile(target)

	ev := <-w.Event()
	if ev.Kind != EventPositionChange || ev.Position != fp.position {
		t.Fatalf("expected a synthesized position-change event for %v, got %+v", fp.position, ev)
	}
}

func TestSpeedNudgeSymmetry(t *testing.T) {
	target := 10 * time.Second

	behind := newFakePlayer()
	behind.position = target - 2*time.Second
	NewWrapper(behind).Reconcile(target)
	if behind.speed <= 1.0 {
		t.Fatalf("expected a lagging client to speed up, got %v", behind.speed)
	}
	if behind.speed > 1.0+maximumSpeedDiff {
		t.Fatalf("speed increase exceeded MAX_SPEED_DIFF: %v", behind.speed)
	}

	ahead := newFakePlayer()
	ahead.position = target + 2*time.Second
	NewWrapper(ahead).Reconcile(target)
	if ahead.speed >= 1.0 {
		t.Fatalf("expected a leading client to slow down, got %v", ahead.speed)
	}
	if ahead.speed < 1.0-maximumSpeedDiff {
		t.Fatalf("speed decrease exceeded MAX_SPEED_DIFF: %v", ahead.speed)
	}
}

func TestSetSpeedPreservesDrift(t *testing.T) {
	fp := newFakePlayer()
	fp.speed = 1.1 // drifted 0.1 above host_speed of 1.0
	w := NewWrapper(fp)

	w.SetSpeed(1.5)

	if w.HostSpeed() != 1.5 {
		t.Fatalf("expected host_speed 1.5, got %v", w.HostSpeed())
	}
	if fp.speed != 1.6 {
		t.Fatalf("expected actual speed to preserve the 0.1 drift on top of 1.5, got %v", fp.speed)
	}
}

func TestSetSpeedTwiceIsIdempotentOnHostSpeed(t *testing.T) {
	fp := newFakePlayer()
	w := NewWrapper(fp)

	w.SetSpeed(1.5)
	w.SetSpeed(1.5)

	if w.HostSpeed() != 1.5 {
		t.Fatalf("expected host_speed to remain 1.5, got %v", w.HostSpeed())
	}
	if fp.speed != 1.5 {
		t.Fatalf("expected no accumulated drift after repeating the same speed, got %v", fp.speed)
	}
}
