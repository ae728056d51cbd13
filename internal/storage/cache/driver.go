package cache

import (
	"context"
	"time"

	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/hashmap"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

const cleanupInterval = 10 * time.Second

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching
type Driver struct {
	underlying storage.Driver
	lifetime   time.Duration
	clock      clock.Clock
	readings   *ReadingRepository
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver.
// Cached read results are kept for the given lifetime.
func New(underlying storage.Driver, lifetime time.Duration, clk clock.Clock) *Driver {
	return &Driver{
		underlying: underlying,
		lifetime:   lifetime,
		clock:      clk,
	}
}

// Initialize initializes the underlying driver and the caching repositories
func (driver *Driver) Initialize(ctx context.Context) error {
	if err := driver.underlying.Initialize(ctx); err != nil {
		return err
	}

	readingCache := hashmap.NewExpiring[string, []*weather.Reading](driver.lifetime, driver.clock)
	readingCache.ScheduleCleanupTask(cleanupInterval)
	driver.readings = &ReadingRepository{
		repo:  driver.underlying.Readings(),
		cache: readingCache,
	}
	return nil
}

// Readings provides the caching weather reading repository implementation
func (driver *Driver) Readings() weather.Repository {
	return driver.readings
}

// Close closes the caching repositories and the underlying driver
func (driver *Driver) Close() {
	if driver.readings != nil {
		driver.readings.cache.StopCleanupTask()
		driver.readings = nil
	}
	driver.underlying.Close()
}
