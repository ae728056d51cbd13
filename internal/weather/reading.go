package weather

import (
	"strings"
	"time"
)

// Reading represents a stored weather reading of a single city
type Reading struct {
	ID          int64     `json:"id"`
	CityName    string    `json:"city_name"`
	Temperature float64   `json:"temperature"`
	Pressure    int       `json:"pressure"`
	Humidity    int       `json:"humidity"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Observation holds the validated measurements of a provider response that are not yet stored
type Observation struct {
	Temperature float64
	Pressure    int
	Humidity    int
}

// Value returns the value of the given column
func (reading *Reading) Value(column Column) (any, bool) {
	switch column {
	case ColumnID:
		return reading.ID, true
	case ColumnCityName:
		return reading.CityName, true
	case ColumnTemperature:
		return reading.Temperature, true
	case ColumnPressure:
		return reading.Pressure, true
	case ColumnHumidity:
		return reading.Humidity, true
	case ColumnObservedAt:
		return reading.ObservedAt, true
	default:
		return nil, false
	}
}

// CompareReadings compares the values two readings hold in the given column.
// The result is negative if a sorts before b, positive if after and 0 if both are equal.
func CompareReadings(a, b *Reading, column Column) int {
	switch column {
	case ColumnID:
		return compareOrdered(a.ID, b.ID)
	case ColumnCityName:
		return strings.Compare(a.CityName, b.CityName)
	case ColumnTemperature:
		return compareOrdered(a.Temperature, b.Temperature)
	case ColumnPressure:
		return compareOrdered(a.Pressure, b.Pressure)
	case ColumnHumidity:
		return compareOrdered(a.Humidity, b.Humidity)
	case ColumnObservedAt:
		return a.ObservedAt.Compare(b.ObservedAt)
	default:
		return 0
	}
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
