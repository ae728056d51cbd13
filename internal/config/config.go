package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/skybi/weather-server/internal/storage/sqldb"
)

// The supported storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMySQL    = "mysql"
	StorageDriverMemory   = "memory"
)

// ConfigError reports a missing or malformed configuration value
type ConfigError struct {
	Key    string
	Reason string
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration value '%s': %s", err.Key, err.Reason)
}

// Config represents the application configuration structure
type Config struct {
	Environment   string `default:"prod"`
	ListenAddress string `split_words:"true" default:":8081"`

	StorageDriver    string `split_words:"true" default:"postgres"`
	DatabaseHost     string `split_words:"true" default:"localhost"`
	DatabasePort     int    `split_words:"true" default:"5432"`
	DatabaseName     string `split_words:"true" default:"weather"`
	DatabaseUser     string `split_words:"true" default:"postgres"`
	DatabasePassword string `split_words:"true"`

	PostgresSSLMode             string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	PostgresMaintenanceDatabase string `split_words:"true" default:"postgres"`
	PostgresCreateDatabase      bool   `split_words:"true" default:"true"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"weather.db"`

	APIKey     string   `envconfig:"API_KEY"`
	APIBaseURL string   `envconfig:"API_BASE_URL" default:"http://api.weatherstack.com/current"`
	Cities     []string `default:"Seoul,pusan,Malmö,Stockholm,Paris,Taipei,London"`

	FetchInterval         time.Duration `split_words:"true" default:"1h"`
	FetchTimeout          time.Duration `split_words:"true" default:"10s"`
	FetchAttempts         int           `split_words:"true" default:"3"`
	FetchRetryDelay       time.Duration `split_words:"true" default:"2s"`
	FetchRateLimit        int           `split_words:"true" default:"60"`
	FetchRateWindow       time.Duration `split_words:"true" default:"1m"`
	FetchBreakerThreshold int           `split_words:"true" default:"3"`

	CycleTimeout     time.Duration `split_words:"true" default:"15m"`
	RunOnStartup     bool          `split_words:"true" default:"true"`
	PurgeBeforeCycle bool          `split_words:"true" default:"false"`

	CacheLifetime time.Duration `split_words:"true" default:"30s"`
	ReadRateLimit int           `split_words:"true" default:"60"`
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("wx", config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate performs the checks envconfig cannot express
func (config *Config) Validate() error {
	switch config.StorageDriver {
	case StorageDriverPostgres, StorageDriverSQLite, StorageDriverMySQL, StorageDriverMemory:
	default:
		return &ConfigError{Key: "WX_STORAGE_DRIVER", Reason: fmt.Sprintf("unsupported storage driver '%s'", config.StorageDriver)}
	}

	if strings.TrimSpace(config.APIKey) == "" {
		return &ConfigError{Key: "WX_API_KEY", Reason: "the weather provider API key is required"}
	}
	if _, err := url.ParseRequestURI(config.APIBaseURL); err != nil {
		return &ConfigError{Key: "WX_API_BASE_URL", Reason: err.Error()}
	}

	cities := make([]string, 0, len(config.Cities))
	for _, city := range config.Cities {
		if city = strings.TrimSpace(city); city != "" {
			cities = append(cities, city)
		}
	}
	if len(cities) == 0 {
		return &ConfigError{Key: "WX_CITIES", Reason: "at least one city is required"}
	}
	config.Cities = cities

	positive := map[string]time.Duration{
		"WX_FETCH_INTERVAL":    config.FetchInterval,
		"WX_FETCH_TIMEOUT":     config.FetchTimeout,
		"WX_FETCH_RETRY_DELAY": config.FetchRetryDelay,
		"WX_FETCH_RATE_WINDOW": config.FetchRateWindow,
		"WX_CYCLE_TIMEOUT":     config.CycleTimeout,
		"WX_CACHE_LIFETIME":    config.CacheLifetime,
	}
	for key, value := range positive {
		if value <= 0 {
			return &ConfigError{Key: key, Reason: "must be a positive duration"}
		}
	}
	if config.FetchAttempts < 1 {
		return &ConfigError{Key: "WX_FETCH_ATTEMPTS", Reason: "must be at least 1"}
	}
	if config.FetchRateLimit < 1 {
		return &ConfigError{Key: "WX_FETCH_RATE_LIMIT", Reason: "must be at least 1"}
	}
	if config.ReadRateLimit < 1 {
		return &ConfigError{Key: "WX_READ_RATE_LIMIT", Reason: "must be at least 1"}
	}
	return nil
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.ToLower(config.Environment) == "prod"
}

// PostgresDSN builds the connection URL of the configured PostgreSQL database
func (config *Config) PostgresDSN() string {
	return config.postgresURL(config.DatabaseName)
}

// PostgresMaintenanceDSN builds the connection URL of the database used to create the configured one
func (config *Config) PostgresMaintenanceDSN() string {
	return config.postgresURL(config.PostgresMaintenanceDatabase)
}

func (config *Config) postgresURL(database string) string {
	dsn := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.DatabaseUser, config.DatabasePassword),
		Host:     net.JoinHostPort(config.DatabaseHost, strconv.Itoa(config.DatabasePort)),
		Path:     "/" + database,
		RawQuery: url.Values{"sslmode": {config.PostgresSSLMode}}.Encode(),
	}
	return dsn.String()
}

// MySQLDSN builds the DSN of the configured MySQL database
func (config *Config) MySQLDSN() string {
	return sqldb.MySQLDSN(net.JoinHostPort(config.DatabaseHost, strconv.Itoa(config.DatabasePort)), config.DatabaseName,
		config.DatabaseUser, config.DatabasePassword)
}
