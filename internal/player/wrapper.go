package player

import "time"

const (
	minimumDelay = 1 * time.Second
	maximumDelay = 5 * time.Second

	minimumSpeedDiff = 0.02
	maximumSpeedDiff = 0.05
)

// Wrapper sits between the core and a raw MediaPlayer, absorbing drift
// between the authoritative host_speed and the player's actual,
// transiently-perturbed speed. It also owns a small synthesized-event
// queue drained ahead of the underlying player's own events.
type Wrapper struct {
	player    MediaPlayer
	hostSpeed float64
	queue     []Event
}

// NewWrapper wraps player with host_speed initialized to 1.0.
func NewWrapper(p MediaPlayer) *Wrapper {
	return &Wrapper{player: p, hostSpeed: 1.0}
}

func (w *Wrapper) HostSpeed() float64 { return w.hostSpeed }

// Reconcile compares the player's actual position against target and
// applies the least disruptive correction: restore speed if within
// min_delay, hard-seek if far ahead, synthesize a catch-up event if far
// behind, otherwise nudge speed proportionally to the drift.
func (w *Wrapper) Reconcile(target time.Duration) {
	pos, ok := w.player.GetPosition()
	if !ok {
		return
	}
	actualSpeed := w.player.GetSpeed()
	minDelay := scaleDuration(minimumDelay, w.hostSpeed)
	maxDelay := scaleDuration(maximumDelay, w.hostSpeed)

	switch {
	case pos <= target+minDelay && pos >= target-minDelay:
		if actualSpeed != w.hostSpeed {
			w.player.SetSpeed(w.hostSpeed)
		}
	case pos >= target+maxDelay:
		w.player.SetPosition(target)
	case pos <= target-maxDelay:
		w.queue = append(w.queue, Event{Kind: EventPositionChange, Position: pos})
	default:
		w.stepwiseSpeedChange(pos, target)
	}
}

// stepwiseSpeedChange nudges actual speed toward the host position,
// symmetric in sign: the client lagging behind the host speeds up, the
// client ahead of the host slows down. Delta is clamped to ±MAX_SPEED_DIFF.
func (w *Wrapper) stepwiseSpeedChange(clientPos, hostPos time.Duration) {
	diff := (hostPos - clientPos).Seconds()
	delta := diff * (maximumSpeedDiff - minimumSpeedDiff) / 4
	if delta > maximumSpeedDiff {
		delta = maximumSpeedDiff
	}
	if delta < -maximumSpeedDiff {
		delta = -maximumSpeedDiff
	}
	w.player.SetSpeed(w.hostSpeed * (1 + delta))
}

// SetSpeed updates host_speed and applies the new speed to the player
// while preserving whatever drift correction is currently in effect: the
// difference between the player's actual speed and the old host_speed is
// computed before host_speed changes, then re-applied on top of the new
// target speed.
func (w *Wrapper) SetSpeed(newSpeed float64) {
	diff := w.player.GetSpeed() - w.hostSpeed
	w.hostSpeed = newSpeed
	w.player.SetSpeed(newSpeed + diff)
}

// Event drains the synthesized queue first, then forwards the underlying
// player's next event.
func (w *Wrapper) Event() <-chan Event {
	if len(w.queue) > 0 {
		ch := make(chan Event, 1)
		ch <- w.queue[0]
		w.queue = w.queue[1:]
		close(ch)
		return ch
	}
	return w.player.Event()
}

func (w *Wrapper) Underlying() MediaPlayer { return w.player }

func scaleDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}
