package poller

import (
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"full minute", time.Minute, "01:00"},
		{"floors partial seconds", 59*time.Second + 999*time.Millisecond, "00:59"},
		{"under one second", 400 * time.Millisecond, "00:00"},
		{"zero", 0, "00:00"},
		{"negative", -5 * time.Second, "00:00"},
		{"over ten minutes", 12*time.Minute + 5*time.Second, "12:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRemaining(tt.d); got != tt.want {
				t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestCountdown_ArmRendersImmediately(t *testing.T) {
	clock := newFakeClock()
	var rendered []string
	c := NewCountdown(clock, func(s string) { rendered = append(rendered, s) })

	c.Arm(clock.Now().Add(90 * time.Second))

	if len(rendered) != 1 || rendered[0] != "01:30" {
		t.Fatalf("rendered = %v, want [01:30]", rendered)
	}
	if !c.Armed() {
		t.Error("Armed() = false after Arm")
	}
}

func TestCountdown_RecomputesFromAbsoluteInstant(t *testing.T) {
	clock := newFakeClock()
	var last string
	c := NewCountdown(clock, func(s string) { last = s })

	c.Arm(clock.Now().Add(60 * time.Second))

	// a late tick must reflect wall-clock time, not a count of ticks
	clock.Advance(7500 * time.Millisecond)
	<-c.C()
	c.Tick()

	if last != "00:52" {
		t.Errorf("after 7.5s rendered %q, want 00:52", last)
	}
}

func TestCountdown_ExpiresAndStops(t *testing.T) {
	clock := newFakeClock()
	var last string
	c := NewCountdown(clock, func(s string) { last = s })

	c.Arm(clock.Now().Add(2 * time.Second))
	clock.Advance(2 * time.Second)
	c.Tick()

	if last != CountdownExpired {
		t.Errorf("rendered %q at next poll instant, want %q", last, CountdownExpired)
	}
	if c.Armed() {
		t.Error("countdown still armed after expiry")
	}
	if c.C() != nil {
		t.Error("C() should be nil once expired")
	}
	if n := clock.live(time.Second); n != 0 {
		t.Errorf("live per-second tickers = %d, want 0", n)
	}
}

func TestCountdown_RearmCancelsPrevious(t *testing.T) {
	clock := newFakeClock()
	c := NewCountdown(clock, func(string) {})

	c.Arm(clock.Now().Add(time.Minute))
	c.Arm(clock.Now().Add(time.Minute))
	c.Arm(clock.Now().Add(time.Minute))

	if n := clock.live(time.Second); n != 1 {
		t.Errorf("live per-second tickers = %d, want 1", n)
	}
}

func TestCountdown_StopWhenNotArmed(t *testing.T) {
	c := NewCountdown(newFakeClock(), func(string) {})

	// must not panic
	c.Stop()
	c.Stop()
}
