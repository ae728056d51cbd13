package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

const (
	insertReadingSQL = "INSERT INTO weather_data (city_name, temperature, pressure, humidity, date_time) VALUES ($1, $2, $3, $4, $5) RETURNING id"
	purgeReadingsSQL = "TRUNCATE TABLE weather_data RESTART IDENTITY"
)

// querier is the subset of *pgxpool.Pool the repository uses
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ReadingRepository implements the weather.Repository interface using PostgreSQL
type ReadingRepository struct {
	db    querier
	clock clock.Clock
}

var _ weather.Repository = (*ReadingRepository)(nil)

// Create stores a new reading of the given city and returns its ID
func (repo *ReadingRepository) Create(ctx context.Context, city string, obs weather.Observation) (int64, error) {
	observedAt := repo.clock.Now().UTC()

	var id int64
	err := repo.db.QueryRow(ctx, insertReadingSQL, city, obs.Temperature, obs.Pressure, obs.Humidity, observedAt).Scan(&id)
	if err != nil {
		return 0, &weather.StorageError{Op: "insert reading", Err: err}
	}
	return id, nil
}

// Find retrieves all readings matching the query
func (repo *ReadingRepository) Find(ctx context.Context, query *weather.Query) ([]*weather.Reading, error) {
	sql, args, err := storage.SelectReadings(query, squirrel.Dollar)
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &weather.StorageError{Op: "read readings", Err: err}
	}
	defer rows.Close()

	readings := []*weather.Reading{}
	for rows.Next() {
		obj, err := repo.rowToReading(rows)
		if err != nil {
			return nil, &weather.StorageError{Op: "read readings", Err: err}
		}
		readings = append(readings, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, &weather.StorageError{Op: "read readings", Err: err}
	}
	return readings, nil
}

// Purge removes all readings and restarts the ID sequence
func (repo *ReadingRepository) Purge(ctx context.Context) error {
	if _, err := repo.db.Exec(ctx, purgeReadingsSQL); err != nil {
		return &weather.StorageError{Op: "purge readings", Err: err}
	}
	return nil
}

func (repo *ReadingRepository) rowToReading(row pgx.Row) (*weather.Reading, error) {
	obj := new(weather.Reading)
	var pressure, humidity int32
	if err := row.Scan(&obj.ID, &obj.CityName, &obj.Temperature, &pressure, &humidity, &obj.ObservedAt); err != nil {
		return nil, err
	}
	obj.Pressure = int(pressure)
	obj.Humidity = int(humidity)
	return obj, nil
}
