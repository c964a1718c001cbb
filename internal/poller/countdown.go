package poller

import (
	"fmt"
	"time"
)

// CountdownExpired is rendered once the next poll instant has been reached.
const CountdownExpired = "00:00"

// Countdown renders the time remaining until the next poll once per second.
//
// The remaining time is always recomputed from the absolute next-poll instant,
// never decremented locally, so rendering cannot drift from the scheduler.
// Once the instant passes the countdown renders [CountdownExpired] and stops
// its own ticker; the next poll cycle re-arms it.
//
// Countdown is not safe for concurrent use. It is driven by the scheduler's
// loop goroutine.
type Countdown struct {
	clock      Clock
	render     func(string)
	ticker     Ticker
	nextPollAt time.Time
}

// NewCountdown creates a [Countdown] that passes each rendered string to render.
func NewCountdown(clock Clock, render func(string)) *Countdown {
	return &Countdown{clock: clock, render: render}
}

// Arm cancels any running per-second trigger, starts a new one aimed at
// nextPollAt, and renders immediately.
func (c *Countdown) Arm(nextPollAt time.Time) {
	c.Stop()
	c.nextPollAt = nextPollAt
	c.ticker = c.clock.NewTicker(time.Second)
	c.Tick()
}

// Tick renders the current remaining time.
func (c *Countdown) Tick() {
	remaining := c.nextPollAt.Sub(c.clock.Now())
	if remaining <= 0 {
		c.render(CountdownExpired)
		c.Stop()
		return
	}
	c.render(FormatRemaining(remaining))
}

// C returns the tick channel, or nil while the countdown is not armed.
// A nil channel blocks forever in a select, which keeps the loop idle.
func (c *Countdown) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C()
}

// Armed reports whether a per-second trigger is live.
func (c *Countdown) Armed() bool {
	return c.ticker != nil
}

// Stop cancels the per-second trigger. Safe to call when not armed.
func (c *Countdown) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// FormatRemaining renders d as zero-padded mm:ss using whole elapsed seconds.
// Non-positive durations render as [CountdownExpired].
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return CountdownExpired
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
