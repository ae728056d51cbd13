package storage

import (
	"context"

	"github.com/skybi/weather-server/internal/weather"
)

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Readings provides a weather reading repository implementation
	Readings() weather.Repository

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}
