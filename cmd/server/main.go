package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/weather-server/internal/api"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/config"
	"github.com/skybi/weather-server/internal/ingest"
	"github.com/skybi/weather-server/internal/provider"
	"github.com/skybi/weather-server/internal/storage"
	"github.com/skybi/weather-server/internal/storage/cache"
	"github.com/skybi/weather-server/internal/storage/memory"
	"github.com/skybi/weather-server/internal/storage/postgres"
	"github.com/skybi/weather-server/internal/storage/sqldb"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", redacted(cfg))).Msg("")

	// Initialize the storage driver
	log.Info().Str("driver", cfg.StorageDriver).Msg("initializing storage...")
	driver := cache.New(newStorageDriver(cfg), cfg.CacheLifetime, clock.Real)
	if err := driver.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("could not initialize the storage")
	}
	defer driver.Close()

	// Create the weather provider client
	client, err := provider.NewClient(provider.Options{
		BaseURL:          cfg.APIBaseURL,
		APIKey:           cfg.APIKey,
		Timeout:          cfg.FetchTimeout,
		Attempts:         cfg.FetchAttempts,
		RetryDelay:       cfg.FetchRetryDelay,
		RateLimit:        cfg.FetchRateLimit,
		RateWindow:       cfg.FetchRateWindow,
		BreakerThreshold: cfg.FetchBreakerThreshold,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the weather provider client")
	}

	// Schedule the ingestion cycles
	log.Info().Strs("cities", cfg.Cities).Dur("interval", cfg.FetchInterval).Msg("scheduling ingestion...")
	scheduler := ingest.NewScheduler(&ingest.Service{
		Fetcher:          client,
		Readings:         driver.Readings(),
		Cities:           cfg.Cities,
		PurgeBeforeCycle: cfg.PurgeBeforeCycle,
	}, cfg.FetchInterval, cfg.CycleTimeout, cfg.RunOnStartup)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("could not schedule the ingestion")
	}
	defer func() {
		log.Info().Msg("stopping the ingestion scheduler...")
		scheduler.Stop()
	}()

	// Start up the data API
	log.Info().Str("data_api", cfg.ListenAddress).Msg("starting up the data API...")
	apis := &api.Service{
		Config:  cfg,
		Storage: driver,
	}
	apiErrs := make(chan error, 1)
	if err := apis.Startup(apiErrs); err != nil {
		log.Fatal().Err(err).Msg("could not start up the data API")
	}
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the API service raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the data API...")
		apis.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown
}

func newStorageDriver(cfg *config.Config) storage.Driver {
	switch cfg.StorageDriver {
	case config.StorageDriverSQLite:
		return sqldb.New(sqldb.SQLite, cfg.SQLitePath, clock.Real)
	case config.StorageDriverMySQL:
		return sqldb.New(sqldb.MySQL, cfg.MySQLDSN(), clock.Real)
	case config.StorageDriverMemory:
		return memory.New(clock.Real)
	default:
		opts := postgres.Options{
			DSN:      cfg.PostgresDSN(),
			Database: cfg.DatabaseName,
		}
		if cfg.PostgresCreateDatabase {
			opts.MaintenanceDSN = cfg.PostgresMaintenanceDSN()
		}
		return postgres.New(opts)
	}
}

// redacted returns a copy of the configuration without secrets for debug logging
func redacted(cfg *config.Config) config.Config {
	cpy := *cfg
	if cpy.APIKey != "" {
		cpy.APIKey = "***"
	}
	if cpy.DatabasePassword != "" {
		cpy.DatabasePassword = "***"
	}
	return cpy
}
