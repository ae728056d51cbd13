package weather

// Table is the name of the table readings are stored in
const Table = "weather_data"

// Column represents a column of the readings table.
// Only the constants below are valid; filters and orderings are restricted to them so that column names written into
// SQL text never originate from request input.
type Column string

const (
	ColumnID          Column = "id"
	ColumnCityName    Column = "city_name"
	ColumnTemperature Column = "temperature"
	ColumnPressure    Column = "pressure"
	ColumnHumidity    Column = "humidity"
	ColumnObservedAt  Column = "date_time"
)

// Columns lists all columns in table order
var Columns = []Column{
	ColumnID,
	ColumnCityName,
	ColumnTemperature,
	ColumnPressure,
	ColumnHumidity,
	ColumnObservedAt,
}

// ColumnNames returns the names of all columns in table order
func ColumnNames() []string {
	names := make([]string, 0, len(Columns))
	for _, column := range Columns {
		names = append(names, string(column))
	}
	return names
}

// Valid reports whether the column is one of the readings table's columns
func (column Column) Valid() bool {
	for _, known := range Columns {
		if column == known {
			return true
		}
	}
	return false
}

// ParseColumn resolves a column by its name
func ParseColumn(name string) (Column, error) {
	column := Column(name)
	if !column.Valid() {
		return "", &UnknownColumnError{Column: column}
	}
	return column, nil
}
