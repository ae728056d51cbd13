// Package memory implements a volatile storage driver built using hashicorp/go-memdb
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

const (
	indexID   = "id"
	indexCity = "city_name"
)

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		weather.Table: {
			Name: weather.Table,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:         indexID,
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.IntFieldIndex{Field: "ID"},
				},
				indexCity: {
					Name:         indexCity,
					Unique:       false,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "CityName"},
				},
			},
		},
	},
}

// Driver represents the in-memory storage driver
type Driver struct {
	clock    clock.Clock
	readings *ReadingRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty in-memory storage driver
func New(clk clock.Clock) *Driver {
	if clk == nil {
		clk = clock.Real
	}
	return &Driver{clock: clk}
}

// Initialize creates the in-memory database
func (driver *Driver) Initialize(_ context.Context) error {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return err
	}
	driver.readings = &ReadingRepository{
		db:    db,
		clock: driver.clock,
	}
	return nil
}

// Readings provides the in-memory weather reading repository implementation
func (driver *Driver) Readings() weather.Repository {
	return driver.readings
}

// Close discards the stored readings
func (driver *Driver) Close() {
	driver.readings = nil
}

// ReadingRepository implements the weather.Repository interface using go-memdb
type ReadingRepository struct {
	db    *memdb.MemDB
	clock clock.Clock

	mtx    sync.Mutex
	lastID int64
}

var _ weather.Repository = (*ReadingRepository)(nil)

// Create stores a new reading of the given city and returns its ID
func (repo *ReadingRepository) Create(_ context.Context, city string, obs weather.Observation) (int64, error) {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()

	reading := &weather.Reading{
		ID:          repo.lastID + 1,
		CityName:    city,
		Temperature: obs.Temperature,
		Pressure:    obs.Pressure,
		Humidity:    obs.Humidity,
		ObservedAt:  repo.clock.Now().UTC(),
	}

	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(weather.Table, reading); err != nil {
		return 0, &weather.StorageError{Op: "insert reading", Err: err}
	}
	txn.Commit()

	repo.lastID = reading.ID
	return reading.ID, nil
}

// Find retrieves all readings matching the query.
// Readings are returned in insertion order unless the query defines an ordering.
func (repo *ReadingRepository) Find(_ context.Context, query *weather.Query) ([]*weather.Reading, error) {
	if query == nil {
		query = &weather.Query{}
	}
	if _, err := weather.Compile(query.Filter); err != nil {
		return nil, err
	}
	if query.OrderBy != nil {
		if _, err := query.OrderBy.Clause(); err != nil {
			return nil, err
		}
	}

	candidates, err := repo.candidates(query.Filter)
	if err != nil {
		return nil, &weather.StorageError{Op: "read readings", Err: err}
	}

	readings := []*weather.Reading{}
	for _, reading := range candidates {
		ok, err := query.Filter.Match(reading)
		if err != nil {
			return nil, err
		}
		if ok {
			cpy := *reading
			readings = append(readings, &cpy)
		}
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].ID < readings[j].ID
	})
	if query.OrderBy != nil {
		order := query.OrderBy
		sort.SliceStable(readings, func(i, j int) bool {
			cmp := weather.CompareReadings(readings[i], readings[j], order.Column)
			if order.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if query.Limit > 0 && uint64(len(readings)) > query.Limit {
		readings = readings[:query.Limit]
	}
	return readings, nil
}

// candidates narrows the readings down using the city index whenever the filter constrains the city name
func (repo *ReadingRepository) candidates(filter *weather.Filter) ([]*weather.Reading, error) {
	txn := repo.db.Txn(false)
	defer txn.Abort()

	cities, ok, err := filter.Values(weather.ColumnCityName)
	if err != nil {
		return nil, err
	}
	if !ok || !allStrings(cities) {
		return collect(txn.Get(weather.Table, indexID))
	}

	seen := make(map[int64]struct{})
	result := []*weather.Reading{}
	for _, city := range cities {
		found, err := collect(txn.Get(weather.Table, indexCity, city))
		if err != nil {
			return nil, err
		}
		for _, reading := range found {
			if _, dup := seen[reading.ID]; dup {
				continue
			}
			seen[reading.ID] = struct{}{}
			result = append(result, reading)
		}
	}
	return result, nil
}

// Purge removes all readings and restarts the ID sequence
func (repo *ReadingRepository) Purge(_ context.Context) error {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()

	txn := repo.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(weather.Table, indexID); err != nil {
		return &weather.StorageError{Op: "purge readings", Err: err}
	}
	txn.Commit()

	repo.lastID = 0
	return nil
}

func collect(it memdb.ResultIterator, err error) ([]*weather.Reading, error) {
	if err != nil {
		return nil, err
	}
	readings := []*weather.Reading{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		readings = append(readings, obj.(*weather.Reading))
	}
	return readings, nil
}

func allStrings(values []any) bool {
	for _, value := range values {
		if _, ok := value.(string); !ok {
			return false
		}
	}
	return true
}
