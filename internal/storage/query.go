package storage

import (
	"github.com/Masterminds/squirrel"
	"github.com/skybi/weather-server/internal/weather"
)

// SelectReadings builds the SQL statement reading all readings matching the given query.
// The compiled filter is only attached as a WHERE clause if it is not empty.
func SelectReadings(query *weather.Query, format squirrel.PlaceholderFormat) (string, []interface{}, error) {
	if query == nil {
		query = &weather.Query{}
	}

	predicate, err := weather.Compile(query.Filter)
	if err != nil {
		return "", nil, err
	}

	builder := squirrel.Select(weather.ColumnNames()...).From(weather.Table).PlaceholderFormat(format)
	if !predicate.IsEmpty() {
		builder = builder.Where(predicate)
	}
	if query.OrderBy != nil {
		clause, err := query.OrderBy.Clause()
		if err != nil {
			return "", nil, err
		}
		builder = builder.OrderBy(clause)
	}
	if query.Limit > 0 {
		builder = builder.Limit(query.Limit)
	}
	return builder.ToSql()
}
