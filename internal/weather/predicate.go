package weather

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

// Predicate is a compiled filter: an SQL boolean expression using '?' placeholders and its positional arguments.
// The amount of placeholders in SQL always equals len(Args).
type Predicate struct {
	SQL  string
	Args []any
}

var _ squirrel.Sqlizer = Predicate{}

// ToSql implements squirrel.Sqlizer so that a predicate can be passed to squirrel's Where
func (predicate Predicate) ToSql() (string, []interface{}, error) {
	return predicate.SQL, predicate.Args, nil
}

// IsEmpty reports whether the predicate constrains nothing
func (predicate Predicate) IsEmpty() bool {
	return predicate.SQL == ""
}

// Compile translates a filter into a predicate.
// Scalars compile to 'column = ?', lists to 'column IN (?, ?, ...)'; clauses are joined using AND in the filter's
// insertion order. Clause text and arguments are produced in the same pass.
// A nil or empty filter compiles to an empty predicate.
func Compile(filter *Filter) (Predicate, error) {
	if filter.IsEmpty() {
		return Predicate{Args: []any{}}, nil
	}

	var sql strings.Builder
	args := make([]any, 0, len(filter.entries))
	for i, entry := range filter.entries {
		if !entry.column.Valid() {
			return Predicate{}, &UnknownColumnError{Column: entry.column}
		}
		values, list, err := flatten(entry.column, entry.value)
		if err != nil {
			return Predicate{}, err
		}

		if i > 0 {
			sql.WriteString(" AND ")
		}
		sql.WriteString(string(entry.column))
		if list {
			sql.WriteString(" IN (")
			for j := range values {
				if j > 0 {
					sql.WriteString(", ")
				}
				sql.WriteByte('?')
			}
			sql.WriteByte(')')
		} else {
			sql.WriteString(" = ?")
		}
		args = append(args, values...)
	}

	return Predicate{SQL: sql.String(), Args: args}, nil
}
