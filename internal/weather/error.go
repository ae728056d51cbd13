package weather

import (
	"errors"
	"fmt"
)

// ErrEmptyList is returned when a filter value is a list without elements
var ErrEmptyList = errors.New("filter list value must contain at least one element")

// UnknownColumnError is returned when a filter or ordering references a column the readings table does not have
type UnknownColumnError struct {
	Column Column
}

func (err *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column '%s'", string(err.Column))
}

// ValueTypeError is returned when a filter value is neither a scalar nor a list of scalars
type ValueTypeError struct {
	Column Column
	Value  any
}

func (err *ValueTypeError) Error() string {
	return fmt.Sprintf("unsupported filter value of type %T for column '%s'", err.Value, string(err.Column))
}

// StorageError wraps a failure of the underlying storage
type StorageError struct {
	Op  string
	Err error
}

func (err *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %s", err.Op, err.Err.Error())
}

func (err *StorageError) Unwrap() error {
	return err.Err
}
