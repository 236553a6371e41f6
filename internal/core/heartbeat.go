package core

import "time"

// HeartbeatInterval is the pacemaker tick period.
const HeartbeatInterval = 500 * time.Millisecond

// Pacemaker emits a tick at HeartbeatInterval with "skip missed ticks"
// semantics: a receiver that falls behind never gets a burst of queued
// ticks, it just gets the next one. Go's time.Ticker already drops ticks
// a slow receiver didn't pick up in time, so no custom skip logic is
// needed here.
type Pacemaker struct {
	ticker *time.Ticker
}

// NewPacemaker starts a pacemaker ticking at interval.
func NewPacemaker(interval time.Duration) *Pacemaker {
	return &Pacemaker{ticker: time.NewTicker(interval)}
}

// C is the channel to select on; each receive is one heartbeat.
func (p *Pacemaker) C() <-chan time.Time { return p.ticker.C }

func (p *Pacemaker) Stop() { p.ticker.Stop() }
