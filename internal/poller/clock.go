package poller

import "time"

// Clock abstracts the time source used by the [Scheduler] and [Countdown].
//
// Production code uses [RealClock]. Tests substitute a manual clock so that
// trigger firing and countdown rendering can be driven deterministically.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is a repeating trigger created by a [Clock].
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock returns a [Clock] backed by the time package.
func RealClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time {
	return r.t.C
}

func (r *realTicker) Stop() {
	r.t.Stop()
}
