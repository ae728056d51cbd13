package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/skybi/weather-server/internal/hashmap"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

// ReadingRepository implements the weather.Repository interface in order to implement caching.
// Read results are cached by their query; every write invalidates the whole cache.
type ReadingRepository struct {
	repo  weather.Repository
	cache *hashmap.ExpiringMap[string, []*weather.Reading]

	// generation is bumped by every write; a read only fills the cache if no write happened while it was running
	mtx        sync.Mutex
	generation uint64
}

var _ weather.Repository = (*ReadingRepository)(nil)

// Create stores a new reading and invalidates all cached read results
func (repo *ReadingRepository) Create(ctx context.Context, city string, obs weather.Observation) (int64, error) {
	id, err := repo.repo.Create(ctx, city, obs)
	if err != nil {
		return 0, err
	}
	repo.invalidate()
	return id, nil
}

// Find retrieves all readings matching the query
func (repo *ReadingRepository) Find(ctx context.Context, query *weather.Query) ([]*weather.Reading, error) {
	key, err := cacheKey(query)
	if err != nil {
		return nil, err
	}
	if cached, ok := repo.cache.Lookup(key); ok {
		return copyReadings(cached), nil
	}

	repo.mtx.Lock()
	generation := repo.generation
	repo.mtx.Unlock()

	readings, err := repo.repo.Find(ctx, query)
	if err != nil {
		return nil, err
	}

	repo.mtx.Lock()
	if repo.generation == generation {
		repo.cache.Set(key, copyReadings(readings))
	}
	repo.mtx.Unlock()
	return readings, nil
}

// Purge removes all readings and invalidates all cached read results
func (repo *ReadingRepository) Purge(ctx context.Context) error {
	if err := repo.repo.Purge(ctx); err != nil {
		return err
	}
	repo.invalidate()
	return nil
}

func (repo *ReadingRepository) invalidate() {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()
	repo.generation++
	repo.cache.Clear()
}

// cacheKey derives the key of a query from the statement it compiles to, so malformed queries fail before the
// underlying repository is asked
func cacheKey(query *weather.Query) (string, error) {
	stmt, args, err := storage.SelectReadings(query, squirrel.Question)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %#v", stmt, args), nil
}

func copyReadings(readings []*weather.Reading) []*weather.Reading {
	cpy := make([]*weather.Reading, 0, len(readings))
	for _, reading := range readings {
		obj := *reading
		cpy = append(cpy, &obj)
	}
	return cpy
}
