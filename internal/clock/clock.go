package clock

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts the time source used by rate limiting, retries and executors
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// After waits for the given duration to elapse and then sends the current time on the returned channel
	After(d time.Duration) <-chan time.Time
}

// Real is the Clock backed by the time package
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep blocks for d using the given clock or until ctx is done, whichever happens first
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-clk.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fake is a manually driven Clock.
// Calls to After advance the fake time by the requested duration immediately and record the duration, so code
// waiting on it never blocks in real time.
type Fake struct {
	mtx    sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFake creates a fake clock starting at the given time
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time
func (fake *Fake) Now() time.Time {
	fake.mtx.Lock()
	defer fake.mtx.Unlock()
	return fake.now
}

// After advances the fake time by d and returns an already fired channel
func (fake *Fake) After(d time.Duration) <-chan time.Time {
	fake.mtx.Lock()
	defer fake.mtx.Unlock()
	fake.sleeps = append(fake.sleeps, d)
	if d > 0 {
		fake.now = fake.now.Add(d)
	}
	ch := make(chan time.Time, 1)
	ch <- fake.now
	return ch
}

// Advance moves the fake time forward without recording a sleep
func (fake *Fake) Advance(d time.Duration) {
	fake.mtx.Lock()
	defer fake.mtx.Unlock()
	fake.now = fake.now.Add(d)
}

// Sleeps returns every duration passed to After so far
func (fake *Fake) Sleeps() []time.Duration {
	fake.mtx.Lock()
	defer fake.mtx.Unlock()
	cpy := make([]time.Duration, len(fake.sleeps))
	copy(cpy, fake.sleeps)
	return cpy
}
