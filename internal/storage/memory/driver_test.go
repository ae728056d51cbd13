package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/weather"
)

func newRepository(t *testing.T, clk clock.Clock) weather.Repository {
	t.Helper()
	driver := New(clk)
	if err := driver.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(driver.Close)
	return driver.Readings()
}

func seed(t *testing.T, repo weather.Repository, cities ...string) {
	t.Helper()
	for i, city := range cities {
		obs := weather.Observation{Temperature: float64(10 + i), Pressure: 1000 + i, Humidity: 50 + i}
		if _, err := repo.Create(context.Background(), city, obs); err != nil {
			t.Fatalf("create %s: %v", city, err)
		}
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newRepository(t, clock.NewFake(start))
	ctx := context.Background()

	first, err := repo.Create(ctx, "Paris", weather.Observation{Temperature: 24, Pressure: 1001, Humidity: 74})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repo.Create(ctx, "Seoul", weather.Observation{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first, second)
	}

	readings, err := repo.Find(ctx, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 2 || readings[0].CityName != "Paris" || !readings[0].ObservedAt.Equal(start) {
		t.Fatalf("readings = %+v", readings)
	}
}

func TestFindUsesCityFilter(t *testing.T) {
	repo := newRepository(t, nil)
	seed(t, repo, "Seoul", "Paris", "London", "Seoul")
	ctx := context.Background()

	readings, err := repo.Find(ctx, &weather.Query{Filter: weather.NewFilter().In(weather.ColumnCityName, "Seoul")})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 2 || readings[0].ID != 1 || readings[1].ID != 4 {
		t.Fatalf("readings = %+v, want Seoul ids 1 and 4", readings)
	}

	filter := weather.NewFilter().In(weather.ColumnCityName, "London", "Seoul", "London").Eq(weather.ColumnHumidity, 53)
	readings, err = repo.Find(ctx, &weather.Query{Filter: filter})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 1 || readings[0].ID != 4 {
		t.Fatalf("readings = %+v, want only id 4", readings)
	}
}

func TestFindOrdersAndLimits(t *testing.T) {
	repo := newRepository(t, nil)
	seed(t, repo, "Seoul", "Paris", "London")

	readings, err := repo.Find(context.Background(), &weather.Query{
		OrderBy: &weather.Order{Column: weather.ColumnCityName},
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(readings) != 2 || readings[0].CityName != "London" || readings[1].CityName != "Paris" {
		t.Fatalf("readings = %+v", readings)
	}
}

func TestFindOnEmptyStore(t *testing.T) {
	repo := newRepository(t, nil)

	readings, err := repo.Find(context.Background(), &weather.Query{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if readings == nil || len(readings) != 0 {
		t.Fatalf("readings = %#v, want empty non-nil slice", readings)
	}
}

func TestFindRejectsMalformedQueries(t *testing.T) {
	repo := newRepository(t, nil)
	seed(t, repo, "Seoul")
	ctx := context.Background()

	_, err := repo.Find(ctx, &weather.Query{Filter: weather.NewFilter().In(weather.ColumnCityName)})
	if !errors.Is(err, weather.ErrEmptyList) {
		t.Errorf("empty list: err = %v", err)
	}

	_, err = repo.Find(ctx, &weather.Query{Filter: weather.NewFilter().Eq("wind", 3)})
	var unknown *weather.UnknownColumnError
	if !errors.As(err, &unknown) {
		t.Errorf("unknown column: err = %v", err)
	}

	_, err = repo.Find(ctx, &weather.Query{OrderBy: &weather.Order{Column: "wind"}})
	if !errors.As(err, &unknown) {
		t.Errorf("unknown order column: err = %v", err)
	}
}

func TestReturnedReadingsAreCopies(t *testing.T) {
	repo := newRepository(t, nil)
	seed(t, repo, "Seoul")
	ctx := context.Background()

	readings, _ := repo.Find(ctx, nil)
	readings[0].CityName = "Busan"

	readings, _ = repo.Find(ctx, nil)
	if readings[0].CityName != "Seoul" {
		t.Fatalf("stored reading was modified through a returned pointer")
	}
}

func TestPurgeRestartsIDs(t *testing.T) {
	repo := newRepository(t, nil)
	seed(t, repo, "Seoul", "Paris")
	ctx := context.Background()

	if err := repo.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	readings, _ := repo.Find(ctx, nil)
	if len(readings) != 0 {
		t.Fatalf("len(readings) = %d after purge", len(readings))
	}
	id, err := repo.Create(ctx, "Paris", weather.Observation{})
	if err != nil || id != 1 {
		t.Fatalf("create after purge = %d, %v, want 1", id, err)
	}
}
