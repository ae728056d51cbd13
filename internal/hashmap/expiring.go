// Package hashmap provides a thread safe map whose values expire after a fixed lifetime
package hashmap

import (
	"sync"
	"time"

	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/task"
)

type expiringEntry[T any] struct {
	raw      T
	inserted time.Time
}

// ExpiringMap is a thread safe map whose values exist for a specific lifetime.
// Expired values are never returned; they are only removed from memory by Cleanup or the cleanup task.
type ExpiringMap[K comparable, V any] struct {
	mtx         sync.Mutex
	underlying  map[K]*expiringEntry[V]
	lifetime    time.Duration
	clock       clock.Clock
	cleanupTask *task.RepeatingTask
}

// NewExpiring creates a new expiring map whose values exist for a specific lifetime.
// A nil clock falls back to the real one.
func NewExpiring[K comparable, V any](lifetime time.Duration, clk clock.Clock) *ExpiringMap[K, V] {
	if clk == nil {
		clk = clock.Real
	}
	return &ExpiringMap[K, V]{
		underlying: make(map[K]*expiringEntry[V]),
		lifetime:   lifetime,
		clock:      clk,
	}
}

// ScheduleCleanupTask schedules the task that cleans up expired values in a specific interval.
// A call to StopCleanupTask as soon as the map is no longer needed is highly recommended because it would not be
// garbage collected otherwise.
func (obj *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	if obj.cleanupTask != nil {
		return
	}
	obj.cleanupTask = task.NewRepeating(func() {
		obj.Cleanup()
	}, tick)
	obj.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task
func (obj *ExpiringMap[K, V]) StopCleanupTask() {
	obj.mtx.Lock()
	cleanupTask := obj.cleanupTask
	obj.cleanupTask = nil
	obj.mtx.Unlock()
	if cleanupTask != nil {
		cleanupTask.Stop(false)
	}
}

// Cleanup removes all expired values and returns their amount
func (obj *ExpiringMap[K, V]) Cleanup() int {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	now := obj.clock.Now()
	removed := 0
	for key, val := range obj.underlying {
		if obj.expired(val, now) {
			delete(obj.underlying, key)
			removed++
		}
	}
	return removed
}

// Size returns the amount of stored key-value pairs, including expired ones not cleaned up yet
func (obj *ExpiringMap[K, V]) Size() int {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	return len(obj.underlying)
}

// Lookup returns the value assigned to the given key and a boolean indicating if a non-expired value is present
func (obj *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	val, ok := obj.underlying[key]
	if !ok || obj.expired(val, obj.clock.Now()) {
		var zero V
		return zero, false
	}
	return val.raw, true
}

// Set sets a key-value pair and restarts its lifetime
func (obj *ExpiringMap[K, V]) Set(key K, value V) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	obj.underlying[key] = &expiringEntry[V]{
		raw:      value,
		inserted: obj.clock.Now(),
	}
}

// GetOrSet returns the non-expired value assigned to the given key or stores and returns the one created by create
func (obj *ExpiringMap[K, V]) GetOrSet(key K, create func() V) V {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	now := obj.clock.Now()
	if val, ok := obj.underlying[key]; ok && !obj.expired(val, now) {
		return val.raw
	}
	value := create()
	obj.underlying[key] = &expiringEntry[V]{
		raw:      value,
		inserted: now,
	}
	return value
}

// Unset deletes the value assigned to given key
func (obj *ExpiringMap[K, V]) Unset(key K) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	delete(obj.underlying, key)
}

// Clear clears the whole map (essentially re-creating the underlying map)
func (obj *ExpiringMap[K, V]) Clear() {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	obj.underlying = make(map[K]*expiringEntry[V])
}

func (obj *ExpiringMap[K, V]) expired(entry *expiringEntry[V], now time.Time) bool {
	return now.Sub(entry.inserted) >= obj.lifetime
}
