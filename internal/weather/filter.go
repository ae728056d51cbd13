package weather

import (
	"fmt"
	"reflect"
	"time"
)

// Filter is an ordered mapping of column to either a scalar value or a list of scalar values.
// Every column appears at most once; setting an already present column replaces its value but keeps its position.
// The insertion order defines the order of the compiled clauses and their parameters.
type Filter struct {
	entries []filterEntry
}

type filterEntry struct {
	column Column
	value  any
}

// NewFilter creates a new empty filter
func NewFilter() *Filter {
	return &Filter{}
}

// Set assigns a scalar or a slice of scalars to the given column
func (filter *Filter) Set(column Column, value any) *Filter {
	for i := range filter.entries {
		if filter.entries[i].column == column {
			filter.entries[i].value = value
			return filter
		}
	}
	filter.entries = append(filter.entries, filterEntry{column: column, value: value})
	return filter
}

// Eq requires the column to equal the given scalar value
func (filter *Filter) Eq(column Column, value any) *Filter {
	return filter.Set(column, value)
}

// In requires the column to equal one of the given values
func (filter *Filter) In(column Column, values ...any) *Filter {
	return filter.Set(column, values)
}

// Get returns the value assigned to the given column
func (filter *Filter) Get(column Column) (any, bool) {
	if filter == nil {
		return nil, false
	}
	for _, entry := range filter.entries {
		if entry.column == column {
			return entry.value, true
		}
	}
	return nil, false
}

// Values returns the flattened parameters assigned to the given column.
// A scalar results in a single parameter.
func (filter *Filter) Values(column Column) ([]any, bool, error) {
	value, ok := filter.Get(column)
	if !ok {
		return nil, false, nil
	}
	values, _, err := flatten(column, value)
	if err != nil {
		return nil, true, err
	}
	return values, true, nil
}

// Columns returns the filtered columns in insertion order
func (filter *Filter) Columns() []Column {
	if filter == nil {
		return nil
	}
	columns := make([]Column, 0, len(filter.entries))
	for _, entry := range filter.entries {
		columns = append(columns, entry.column)
	}
	return columns
}

// Len returns the amount of filtered columns
func (filter *Filter) Len() int {
	if filter == nil {
		return 0
	}
	return len(filter.entries)
}

// IsEmpty reports whether the filter is nil or has no columns
func (filter *Filter) IsEmpty() bool {
	return filter.Len() == 0
}

// Match evaluates the filter against a reading in memory.
// It applies the same value rules as Compile and fails for the same malformed values.
func (filter *Filter) Match(reading *Reading) (bool, error) {
	if filter == nil {
		return true, nil
	}
	for _, entry := range filter.entries {
		actual, ok := reading.Value(entry.column)
		if !ok {
			return false, &UnknownColumnError{Column: entry.column}
		}
		values, _, err := flatten(entry.column, entry.value)
		if err != nil {
			return false, err
		}
		matched := false
		for _, value := range values {
			if equalValues(actual, value) {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// flatten returns the parameters of a single filter value and whether it is a list
func flatten(column Column, value any) ([]any, bool, error) {
	if value == nil {
		return nil, false, &ValueTypeError{Column: column, Value: value}
	}
	if isScalar(value) {
		return []any{value}, false, nil
	}

	ref := reflect.ValueOf(value)
	if ref.Kind() != reflect.Slice && ref.Kind() != reflect.Array {
		return nil, false, &ValueTypeError{Column: column, Value: value}
	}
	if ref.Len() == 0 {
		return nil, true, fmt.Errorf("%w (column '%s')", ErrEmptyList, string(column))
	}
	values := make([]any, 0, ref.Len())
	for i := 0; i < ref.Len(); i++ {
		elem := ref.Index(i).Interface()
		if !isScalar(elem) {
			return nil, true, &ValueTypeError{Column: column, Value: elem}
		}
		values = append(values, elem)
	}
	return values, true, nil
}

func isScalar(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.(time.Time); ok {
		return true
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	af, aNumeric := toFloat(a)
	bf, bNumeric := toFloat(b)
	if aNumeric || bNumeric {
		return aNumeric && bNumeric && af == bf
	}
	ar, br := reflect.ValueOf(a), reflect.ValueOf(b)
	if ar.Kind() == reflect.String && br.Kind() == reflect.String {
		return ar.String() == br.String()
	}
	if ar.Kind() == reflect.Bool && br.Kind() == reflect.Bool {
		return ar.Bool() == br.Bool()
	}
	return false
}

func toFloat(value any) (float64, bool) {
	ref := reflect.ValueOf(value)
	switch ref.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(ref.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(ref.Uint()), true
	case reflect.Float32, reflect.Float64:
		return ref.Float(), true
	default:
		return 0, false
	}
}
