package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/weather"
)

func newSQLiteDriver(t *testing.T, clk clock.Clock) *Driver {
	t.Helper()
	driver := New(SQLite, ":memory:", clk)
	if err := driver.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(driver.Close)
	return driver
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	repo := newSQLiteDriver(t, clk).Readings()
	ctx := context.Background()

	first, err := repo.Create(ctx, "Paris", weather.Observation{Temperature: 24, Pressure: 1001, Humidity: 74})
	if err != nil {
		t.Fatalf("create Paris: %v", err)
	}
	clk.Advance(time.Second)
	second, err := repo.Create(ctx, "Seoul", weather.Observation{Temperature: 18.5, Pressure: 1013, Humidity: 60})
	if err != nil {
		t.Fatalf("create Seoul: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first, second)
	}

	readings, err := repo.Find(ctx, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("len(readings) = %d, want 2", len(readings))
	}
	got := readings[0]
	if got.ID != 1 || got.CityName != "Paris" || got.Temperature != 24 || got.Pressure != 1001 || got.Humidity != 74 {
		t.Errorf("first reading = %+v", got)
	}
	if !got.ObservedAt.Equal(start) {
		t.Errorf("observed at = %v, want %v", got.ObservedAt, start)
	}
}

func TestFindFiltersByCity(t *testing.T) {
	repo := newSQLiteDriver(t, nil).Readings()
	ctx := context.Background()

	for _, city := range []string{"Seoul", "Paris", "London"} {
		if _, err := repo.Create(ctx, city, weather.Observation{Temperature: 10, Pressure: 1000, Humidity: 50}); err != nil {
			t.Fatalf("create %s: %v", city, err)
		}
	}

	filter := weather.NewFilter().In(weather.ColumnCityName, "Seoul")
	readings, err := repo.Find(ctx, &weather.Query{Filter: filter})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 1 || readings[0].CityName != "Seoul" {
		t.Fatalf("readings = %+v, want only Seoul", readings)
	}

	filter = weather.NewFilter().In(weather.ColumnCityName, "Seoul", "London").Eq(weather.ColumnHumidity, 50)
	readings, err = repo.Find(ctx, &weather.Query{
		Filter:  filter,
		OrderBy: &weather.Order{Column: weather.ColumnID, Descending: true},
		Limit:   1,
	})
	if err != nil {
		t.Fatalf("find ordered: %v", err)
	}
	if len(readings) != 1 || readings[0].CityName != "London" {
		t.Fatalf("readings = %+v, want only London", readings)
	}
}

func TestFindOnEmptyTable(t *testing.T) {
	repo := newSQLiteDriver(t, nil).Readings()

	readings, err := repo.Find(context.Background(), nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if readings == nil || len(readings) != 0 {
		t.Fatalf("readings = %#v, want empty non-nil slice", readings)
	}
}

func TestFindRejectsMalformedFilter(t *testing.T) {
	repo := newSQLiteDriver(t, nil).Readings()

	_, err := repo.Find(context.Background(), &weather.Query{Filter: weather.NewFilter().In(weather.ColumnCityName)})
	if !errors.Is(err, weather.ErrEmptyList) {
		t.Fatalf("err = %v, want ErrEmptyList", err)
	}
}

func TestPurgeRestartsIDs(t *testing.T) {
	repo := newSQLiteDriver(t, nil).Readings()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, "Taipei", weather.Observation{}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}

	readings, err := repo.Find(ctx, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 0 {
		t.Fatalf("len(readings) = %d after purge", len(readings))
	}

	id, err := repo.Create(ctx, "Taipei", weather.Observation{})
	if err != nil {
		t.Fatalf("create after purge: %v", err)
	}
	if id != 1 {
		t.Errorf("id after purge = %d, want 1", id)
	}
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	driver := newSQLiteDriver(t, nil)
	repo := driver.Readings()
	driver.db.Close()

	_, err := repo.Create(context.Background(), "Paris", weather.Observation{})
	var storageErr *weather.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("err = %v, want *weather.StorageError", err)
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN("db:3306", "weather", "user", "secret")
	want := "user:secret@tcp(db:3306)/weather?parseTime=true"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}
}
