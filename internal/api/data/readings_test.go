package data

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skybi/weather-server/internal/api/schema"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/config"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/storage/memory"
	"github.com/skybi/weather-server/internal/weather"
)

type failingDriver struct{}

func (failingDriver) Initialize(context.Context) error { return nil }

func (failingDriver) Readings() weather.Repository { return failingRepository{} }

func (failingDriver) Close() {}

type failingRepository struct{}

func (failingRepository) Create(context.Context, string, weather.Observation) (int64, error) {
	return 0, errors.New("not implemented")
}

func (failingRepository) Find(context.Context, *weather.Query) ([]*weather.Reading, error) {
	return nil, &weather.StorageError{Op: "read readings", Err: errors.New("connection refused")}
}

func (failingRepository) Purge(context.Context) error {
	return errors.New("not implemented")
}

func newTestServer(t *testing.T, driver storage.Driver, readRateLimit int) *httptest.Server {
	t.Helper()
	service := &Service{
		Config:  &config.Config{ReadRateLimit: readRateLimit},
		Storage: driver,
	}
	server := httptest.NewServer(service.Router())
	t.Cleanup(func() {
		server.Close()
		service.Shutdown()
	})
	return server
}

func newSeededDriver(t *testing.T, cities ...string) storage.Driver {
	t.Helper()
	driver := memory.New(clock.NewFake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	if err := driver.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for i, city := range cities {
		obs := weather.Observation{Temperature: 20 + float64(i), Pressure: 1000 + i, Humidity: 60 + i}
		if _, err := driver.Readings().Create(context.Background(), city, obs); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	return driver
}

func get(t *testing.T, server *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, body
}

func decodeErrors(t *testing.T, body []byte) *schema.ErrorResponse {
	t.Helper()
	response := new(schema.ErrorResponse)
	if err := json.Unmarshal(body, response); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return response
}

func TestGetReadingsByCity(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t, "Seoul", "Paris", "Seoul"), 100)

	for _, path := range []string{"/weather?city_name=Seoul", "/api/weather_data?city_name=Seoul"} {
		resp, body := get(t, server, path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status = %d, body = %s", path, resp.StatusCode, body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: Content-Type = %q", path, ct)
		}
		var readings []*weather.Reading
		if err := json.Unmarshal(body, &readings); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if len(readings) != 2 || readings[0].ID != 1 || readings[1].ID != 3 {
			t.Fatalf("%s: readings = %+v", path, readings)
		}
		for _, reading := range readings {
			if reading.CityName != "Seoul" {
				t.Errorf("%s: unexpected city %q", path, reading.CityName)
			}
		}
	}
}

func TestGetReadingsMultipleCitiesSortedAndLimited(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t, "Seoul", "Paris", "London"), 100)

	resp, body := get(t, server, "/weather?city_name=Seoul&city_name=London&sort=-id&limit=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var readings []*weather.Reading
	if err := json.Unmarshal(body, &readings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(readings) != 1 || readings[0].CityName != "London" {
		t.Fatalf("readings = %+v", readings)
	}
}

func TestGetReadingsNotFound(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t, "Seoul"), 100)

	resp, body := get(t, server, "/weather?city_name=Atlantis")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	response := decodeErrors(t, body)
	if response.Status != http.StatusNotFound || len(response.Errors) != 1 || response.Errors[0].Type != "weather.notFound" {
		t.Fatalf("response = %+v", response)
	}
}

func TestGetReadingsValidation(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t), 100)

	tests := []struct {
		path    string
		errType string
	}{
		{path: "/weather", errType: "validation.query.parameter.missing"},
		{path: "/weather?city_name=", errType: "validation.query.parameter.missing"},
		{path: "/weather?city_name=Seoul&limit=0", errType: "validation.query.parameter.number.outOfRange"},
		{path: "/weather?city_name=Seoul&sort=wind", errType: "validation.query.parameter.invalidValue"},
	}
	for _, test := range tests {
		resp, body := get(t, server, test.path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d", test.path, resp.StatusCode)
			continue
		}
		response := decodeErrors(t, body)
		if len(response.Errors) != 1 || response.Errors[0].Type != test.errType {
			t.Errorf("%s: errors = %+v, want %s", test.path, response.Errors, test.errType)
		}
	}
}

func TestGetReadingsStorageFailure(t *testing.T) {
	server := newTestServer(t, failingDriver{}, 100)

	resp, body := get(t, server, "/weather?city_name=Seoul")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if response := decodeErrors(t, body); response.Errors[0].Type != schema.ErrInternal.Type {
		t.Fatalf("response = %+v", response)
	}
}

func TestGetReadingsRateLimited(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t, "Seoul"), 2)

	for i := 0; i < 2; i++ {
		if resp, _ := get(t, server, "/weather?city_name=Seoul"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, resp.StatusCode)
		}
	}
	resp, body := get(t, server, "/weather?city_name=Seoul")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if response := decodeErrors(t, body); response.Errors[0].Type != "data.access.rateLimitExceeded" {
		t.Fatalf("response = %+v", response)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t), 100)

	resp, body := get(t, server, "/nothing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if response := decodeErrors(t, body); response.Errors[0].Type != schema.ErrNotFound.Type {
		t.Fatalf("response = %+v", response)
	}
}

func TestRateLimitFallsBackToDefault(t *testing.T) {
	server := newTestServer(t, newSeededDriver(t, "Seoul"), 0)

	for i := 0; i < 3; i++ {
		if resp, body := get(t, server, "/weather?city_name=Seoul"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, body = %s", i+1, resp.StatusCode, body)
		}
	}
}
