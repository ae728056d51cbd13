package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

// Layouts SQLite may hand back TIMESTAMP columns in when they are not converted to time.Time by the driver
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ReadingRepository implements the weather.Repository interface using database/sql
type ReadingRepository struct {
	db      *sql.DB
	dialect Dialect
	clock   clock.Clock
}

var _ weather.Repository = (*ReadingRepository)(nil)

// Create stores a new reading of the given city and returns its ID
func (repo *ReadingRepository) Create(ctx context.Context, city string, obs weather.Observation) (int64, error) {
	observedAt := repo.clock.Now().UTC()

	stmt, args, err := squirrel.Insert(weather.Table).
		Columns(
			string(weather.ColumnCityName),
			string(weather.ColumnTemperature),
			string(weather.ColumnPressure),
			string(weather.ColumnHumidity),
			string(weather.ColumnObservedAt),
		).
		Values(city, obs.Temperature, obs.Pressure, obs.Humidity, observedAt).
		PlaceholderFormat(repo.dialect.Placeholder).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := repo.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, &weather.StorageError{Op: "insert reading", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &weather.StorageError{Op: "insert reading", Err: err}
	}
	return id, nil
}

// Find retrieves all readings matching the query
func (repo *ReadingRepository) Find(ctx context.Context, query *weather.Query) ([]*weather.Reading, error) {
	stmt, args, err := storage.SelectReadings(query, repo.dialect.Placeholder)
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.QueryContext(ctx, stmt, args...)
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
	txn, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return &weather.StorageError{Op: "purge readings", Err: err}
	}
	defer txn.Rollback()

	for _, stmt := range repo.dialect.Purge {
		if _, err := txn.ExecContext(ctx, stmt); err != nil {
			return &weather.StorageError{Op: "purge readings", Err: err}
		}
	}
	if err := txn.Commit(); err != nil {
		return &weather.StorageError{Op: "purge readings", Err: err}
	}
	return nil
}

func (repo *ReadingRepository) rowToReading(rows *sql.Rows) (*weather.Reading, error) {
	obj := new(weather.Reading)
	var observedAt any
	if err := rows.Scan(&obj.ID, &obj.CityName, &obj.Temperature, &obj.Pressure, &obj.Humidity, &observedAt); err != nil {
		return nil, err
	}
	parsed, err := toTime(observedAt)
	if err != nil {
		return nil, err
	}
	obj.ObservedAt = parsed
	return obj, nil
}

func toTime(value any) (time.Time, error) {
	var raw string
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value of type %T", value)
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format %q", raw)
}
