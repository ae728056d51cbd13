package weather

import "context"

// Repository defines the weather reading repository API
type Repository interface {
	// Create stores a new reading of the given city and returns its ID.
	// The observation time is captured by the repository at insert time.
	Create(ctx context.Context, city string, obs Observation) (int64, error)

	// Find retrieves all readings matching the query.
	// Readings are returned in the storage's natural order unless the query defines an ordering.
	Find(ctx context.Context, query *Query) ([]*Reading, error)

	// Purge removes all readings and restarts the ID sequence
	Purge(ctx context.Context) error
}

// Query is used to read readings
type Query struct {
	Filter  *Filter
	OrderBy *Order

	// Limit restricts the amount of returned readings; 0 means unlimited
	Limit uint64
}

// Order describes an explicit ordering of read results
type Order struct {
	Column     Column
	Descending bool
}

// Clause returns the ORDER BY clause of the ordering
func (order *Order) Clause() (string, error) {
	if !order.Column.Valid() {
		return "", &UnknownColumnError{Column: order.Column}
	}
	if order.Descending {
		return string(order.Column) + " DESC", nil
	}
	return string(order.Column) + " ASC", nil
}
