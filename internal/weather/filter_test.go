package weather

import (
	"errors"
	"testing"
	"time"
)

func TestFilterMatch(t *testing.T) {
	reading := &Reading{
		ID:          3,
		CityName:    "Seoul",
		Temperature: 24,
		Pressure:    1001,
		Humidity:    74,
		ObservedAt:  time.Date(2024, 7, 4, 22, 42, 12, 0, time.UTC),
	}

	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{"nil filter", nil, true},
		{"city list hit", NewFilter().In(ColumnCityName, "Paris", "Seoul"), true},
		{"city list miss", NewFilter().In(ColumnCityName, "Paris"), false},
		{"numeric across types", NewFilter().Eq(ColumnTemperature, 24).Eq(ColumnID, uint8(3)), true},
		{"second clause miss", NewFilter().Eq(ColumnCityName, "Seoul").Eq(ColumnHumidity, 75), false},
		{"time", NewFilter().Eq(ColumnObservedAt, reading.ObservedAt.In(time.FixedZone("KST", 9*3600))), true},
		{"string versus number", NewFilter().Eq(ColumnPressure, "1001"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.filter.Match(reading)
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			if got != test.want {
				t.Errorf("expected %v, got %v", test.want, got)
			}
		})
	}
}

func TestFilterAccessors(t *testing.T) {
	filter := NewFilter().Eq(ColumnHumidity, 74).In(ColumnCityName, "Seoul")

	columns := filter.Columns()
	if len(columns) != 2 || columns[0] != ColumnHumidity || columns[1] != ColumnCityName {
		t.Errorf("unexpected columns: %v", columns)
	}
	if value, ok := filter.Get(ColumnHumidity); !ok || value != 74 {
		t.Errorf("unexpected humidity value: %v", value)
	}
	if _, ok := filter.Get(ColumnPressure); ok {
		t.Error("expected pressure to be absent")
	}

	var empty *Filter
	if !empty.IsEmpty() || empty.Len() != 0 || empty.Columns() != nil {
		t.Error("expected a nil filter to behave as empty")
	}
}

func TestParseColumnAndOrder(t *testing.T) {
	column, err := ParseColumn("date_time")
	if err != nil || column != ColumnObservedAt {
		t.Fatalf("unexpected result: %v %v", column, err)
	}
	if _, err := ParseColumn("observed_at; --"); err == nil {
		t.Error("expected an unknown column error")
	}

	clause, err := (&Order{Column: ColumnObservedAt, Descending: true}).Clause()
	if err != nil || clause != "date_time DESC" {
		t.Errorf("unexpected clause: %q %v", clause, err)
	}
	if _, err := (&Order{Column: "nope"}).Clause(); err == nil {
		t.Error("expected an unknown column error")
	}
}

func TestFilterValues(t *testing.T) {
	filter := NewFilter().Eq(ColumnHumidity, 74).In(ColumnCityName, "Seoul", "Paris")

	values, ok, err := filter.Values(ColumnCityName)
	if err != nil || !ok || len(values) != 2 || values[0] != "Seoul" || values[1] != "Paris" {
		t.Errorf("Values(city_name) = %v, %v, %v", values, ok, err)
	}
	values, ok, err = filter.Values(ColumnHumidity)
	if err != nil || !ok || len(values) != 1 || values[0] != 74 {
		t.Errorf("Values(humidity) = %v, %v, %v", values, ok, err)
	}
	if _, ok, _ := filter.Values(ColumnPressure); ok {
		t.Error("Values(pressure) reported a present column")
	}
	if _, _, err := NewFilter().In(ColumnCityName).Values(ColumnCityName); !errors.Is(err, ErrEmptyList) {
		t.Errorf("Values on empty list: err = %v, want ErrEmptyList", err)
	}
}

func TestCompareReadings(t *testing.T) {
	a := &Reading{ID: 1, CityName: "London", Temperature: 12.5, Humidity: 80}
	b := &Reading{ID: 2, CityName: "Paris", Temperature: 12.5, Humidity: 60}

	if CompareReadings(a, b, ColumnID) >= 0 {
		t.Error("id: expected a before b")
	}
	if CompareReadings(a, b, ColumnCityName) >= 0 {
		t.Error("city_name: expected a before b")
	}
	if CompareReadings(a, b, ColumnTemperature) != 0 {
		t.Error("temperature: expected equality")
	}
	if CompareReadings(a, b, ColumnHumidity) <= 0 {
		t.Error("humidity: expected a after b")
	}
}
