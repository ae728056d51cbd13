package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/skybi/weather-server/internal/clock"
)

// Window is a sliding window call limiter: at most Max calls are admitted within any span of Period.
// Callers beyond the limit are blocked until the oldest admitted call leaves the window; they are never rejected.
type Window struct {
	max    int
	period time.Duration
	clock  clock.Clock

	mtx   sync.Mutex
	calls []time.Time
}

// NewWindow creates a new sliding window limiter.
// A nil clock falls back to the real one.
func NewWindow(max int, period time.Duration, clk clock.Clock) *Window {
	if max < 1 {
		max = 1
	}
	if clk == nil {
		clk = clock.Real
	}
	return &Window{
		max:    max,
		period: period,
		clock:  clk,
		calls:  make([]time.Time, 0, max),
	}
}

// Wait blocks until a call may be made and registers it.
// It returns early with the context's error if ctx is done before capacity frees up.
func (window *Window) Wait(ctx context.Context) error {
	for {
		delay := window.reserve()
		if delay <= 0 {
			return nil
		}
		if err := clock.Sleep(ctx, window.clock, delay); err != nil {
			return err
		}
	}
}

// InUse returns the amount of calls currently inside the window
func (window *Window) InUse() int {
	window.mtx.Lock()
	defer window.mtx.Unlock()
	window.evict(window.clock.Now())
	return len(window.calls)
}

// reserve registers a call if capacity is available and returns 0; otherwise it returns the time until the oldest
// call leaves the window
func (window *Window) reserve() time.Duration {
	window.mtx.Lock()
	defer window.mtx.Unlock()

	now := window.clock.Now()
	window.evict(now)
	if len(window.calls) < window.max {
		window.calls = append(window.calls, now)
		return 0
	}
	return window.calls[0].Add(window.period).Sub(now)
}

func (window *Window) evict(now time.Time) {
	n := 0
	for n < len(window.calls) && !window.calls[n].Add(window.period).After(now) {
		n++
	}
	if n > 0 {
		window.calls = append(window.calls[:0], window.calls[n:]...)
	}
}
