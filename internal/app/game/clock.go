package game

import "time"

// Clock turns wall-clock callbacks into step deltas clamped to Max.
type Clock struct {
	Max  time.Duration
	last time.Time
}

func NewClock(maxStep time.Duration) *Clock {
	if maxStep <= 0 {
		maxStep = DefaultMaxStep
	}
	return &Clock{Max: maxStep}
}

// Tick returns the seconds since the previous call; the first call returns 0.
func (c *Clock) Tick(now time.Time) float64 {
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	d := now.Sub(c.last)
	c.last = now
	if d < 0 {
		d = 0
	}
	if d > c.Max {
		d = c.Max
	}
	return d.Seconds()
}
