package postgres

import (
	"context"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/weather"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Options configures the PostgreSQL storage driver
type Options struct {
	// DSN is the connection URL of the weather database
	DSN string

	// MaintenanceDSN is the connection URL of a database used to create the weather database if it does not exist.
	// Database creation is skipped if it is empty.
	MaintenanceDSN string

	// Database is the name of the weather database
	Database string

	Clock clock.Clock
}

// Driver represents the PostgreSQL storage driver implementation
type Driver struct {
	opts     Options
	db       *pgxpool.Pool
	readings *ReadingRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty PostgreSQL storage driver.
// Use Initialize to open the database connection and initialize the repository implementations.
func New(opts Options) *Driver {
	if opts.Clock == nil {
		opts.Clock = clock.Real
	}
	return &Driver{
		opts: opts,
	}
}

// Initialize creates the database if required, migrates it, opens the connection pool and initializes the repository
// implementations
func (driver *Driver) Initialize(ctx context.Context) error {
	if driver.opts.MaintenanceDSN != "" {
		if err := EnsureDatabase(ctx, driver.opts.MaintenanceDSN, driver.opts.Database); err != nil {
			return err
		}
	}

	// Perform SQL migrations
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, driver.opts.DSN)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	// Initialize the database connection pool
	pool, err := pgxpool.Connect(ctx, driver.opts.DSN)
	if err != nil {
		return err
	}
	driver.db = pool

	driver.readings = &ReadingRepository{db: pool, clock: driver.opts.Clock}

	return nil
}

// Readings provides the PostgreSQL weather reading repository implementation
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

// EnsureDatabase connects to the maintenance database and creates the named database if it does not exist yet
func EnsureDatabase(ctx context.Context, maintenanceDSN, name string) error {
	conn, err := pgx.Connect(ctx, maintenanceDSN)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	var exists bool
	if err := conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_database WHERE datname = $1)", name).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return err
	}
	log.Info().Str("database", name).Msg("created the weather database")
	return nil
}
