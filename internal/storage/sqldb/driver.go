// Package sqldb implements the storage driver on top of database/sql for the SQLite and MySQL dialects
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

// Driver represents the database/sql storage driver implementation
type Driver struct {
	dialect  Dialect
	dsn      string
	clock    clock.Clock
	db       *sql.DB
	readings *ReadingRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty database/sql storage driver.
// Use Initialize to open the database connection and initialize the repository implementations.
func New(dialect Dialect, dsn string, clk clock.Clock) *Driver {
	if clk == nil {
		clk = clock.Real
	}
	return &Driver{
		dialect: dialect,
		dsn:     dsn,
		clock:   clk,
	}
}

// Initialize opens the database, applies the dialect's schema and initializes the repository implementations
func (driver *Driver) Initialize(ctx context.Context) error {
	db, err := sql.Open(driver.dialect.DriverName, driver.dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", driver.dialect.Name, err)
	}
	if driver.dialect.SingleConnection {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to %s database: %w", driver.dialect.Name, err)
	}

	for _, stmt := range driver.dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate %s database: %w", driver.dialect.Name, err)
		}
	}

	driver.db = db
	driver.readings = &ReadingRepository{
		db:      db,
		dialect: driver.dialect,
		clock:   driver.clock,
	}
	return nil
}

// Readings provides the database/sql weather reading repository implementation
func (driver *Driver) Readings() weather.Repository {
	return driver.readings
}

// Close discards the repository implementations and closes the database connection
func (driver *Driver) Close() {
	driver.readings = nil
	if driver.db != nil {
		driver.db.Close()
		driver.db = nil
	}
}
