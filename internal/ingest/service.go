// Package ingest implements the ingestion cycle fetching, validating and storing the current weather of every
// configured city, as well as the scheduler triggering it periodically.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/provider"
	"github.com/skybi/weather-server/internal/weather"
)

// Fetcher retrieves the raw provider payload of a city
type Fetcher interface {
	Fetch(ctx context.Context, city string) (provider.Payload, error)
}

var _ Fetcher = (*provider.Client)(nil)

// Service runs ingestion cycles
type Service struct {
	Fetcher  Fetcher
	Readings weather.Repository
	Cities   []string

	// PurgeBeforeCycle removes all stored readings before a cycle starts
	PurgeBeforeCycle bool

	Clock clock.Clock
}

// CityResult is the outcome of ingesting a single city
type CityResult struct {
	City      string
	ReadingID int64
	Err       error
}

// CycleReport summarizes a single ingestion cycle
type CycleReport struct {
	RunID     uuid.UUID
	Started   time.Time
	Finished  time.Time
	Results   []*CityResult
	Succeeded int
	Failed    int
}

// IngestCity fetches, validates and stores the current weather of a single city and returns the ID of the new reading
func (service *Service) IngestCity(ctx context.Context, city string) (int64, error) {
	payload, err := service.Fetcher.Fetch(ctx, city)
	if err != nil {
		return 0, err
	}
	obs, err := provider.Validate(city, payload)
	if err != nil {
		return 0, err
	}
	return service.Readings.Create(ctx, city, obs)
}

// RunCycle ingests every configured city sequentially.
// A failing city is logged and recorded in the report but never keeps the remaining cities from being processed.
// An error is only returned if the cycle could not start at all.
func (service *Service) RunCycle(ctx context.Context) (*CycleReport, error) {
	clk := service.Clock
	if clk == nil {
		clk = clock.Real
	}

	report := &CycleReport{
		RunID:   uuid.New(),
		Started: clk.Now(),
		Results: make([]*CityResult, 0, len(service.Cities)),
	}
	logger := log.With().Str("run_id", report.RunID.String()).Logger()
	logger.Info().Int("cities", len(service.Cities)).Msg("starting ingestion cycle")

	if service.PurgeBeforeCycle {
		if err := service.Readings.Purge(ctx); err != nil {
			return nil, fmt.Errorf("could not purge readings before the ingestion cycle: %w", err)
		}
		logger.Debug().Msg("purged stored readings")
	}

	for _, city := range service.Cities {
		result := &CityResult{City: city}
		result.ReadingID, result.Err = service.IngestCity(ctx, city)
		report.Results = append(report.Results, result)

		if result.Err != nil {
			report.Failed++
			logger.Error().Err(result.Err).Str("city", city).Msg("could not ingest the current weather")
			continue
		}
		report.Succeeded++
		logger.Debug().Str("city", city).Int64("id", result.ReadingID).Msg("ingested the current weather")
	}

	report.Finished = clk.Now()
	logger.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Dur("took", report.Finished.Sub(report.Started)).
		Msg("finished ingestion cycle")
	return report, nil
}
