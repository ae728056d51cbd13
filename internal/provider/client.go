// Package provider implements the client of the upstream weather API (weatherstack's "current" endpoint contract)
// and the validation of its responses.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/skybi/weather-server/internal/clock"
	"github.com/skybi/weather-server/internal/hashmap"
	"github.com/skybi/weather-server/internal/ratelimit"
	"github.com/sony/gobreaker"
)

const (
	DefaultTimeout          = 10 * time.Second
	DefaultAttempts         = 3
	DefaultRetryDelay       = 2 * time.Second
	DefaultRateLimit        = 60
	DefaultRateWindow       = time.Minute
	DefaultBreakerThreshold = 3
	DefaultBreakerTimeout   = time.Minute

	// breakerLifetime bounds how long an idle city keeps its breaker state
	breakerLifetime = 24 * time.Hour
)

// Options configures a Client.
// Zero values are replaced by the package defaults.
type Options struct {
	BaseURL string
	APIKey  string

	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration

	RateLimit  int
	RateWindow time.Duration

	// BreakerThreshold is the amount of consecutive fetches of a single city that exhaust their retry budget before
	// that city's circuit breaker opens. A negative value disables the breakers.
	BreakerThreshold int
	BreakerTimeout   time.Duration

	HTTPClient *http.Client
	Clock      clock.Clock
}

// Client fetches the current weather of a city.
// All fetches share one sliding window limiter, so a single client must be used for every city. Circuit breakers are
// kept per city, so a failing city never gates another one.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration

	http    *http.Client
	clock   clock.Clock
	limiter *ratelimit.Window

	breakerSettings gobreaker.Settings
	breakers        *hashmap.ExpiringMap[string, *gobreaker.CircuitBreaker]
}

// NewClient creates a new provider client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" || opts.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather provider base URL: %w", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = DefaultRateWindow
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = DefaultBreakerThreshold
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = DefaultBreakerTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real
	}

	threshold := opts.BreakerThreshold
	settings := gobreaker.Settings{
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: func(err error) bool {
			var permanent *PermanentError
			return !errors.As(err, &permanent) || !permanent.exhausted
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker changed state")
		},
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		timeout:    opts.Timeout,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
		http:       opts.HTTPClient,
		clock:      opts.Clock,
		limiter:    ratelimit.NewWindow(opts.RateLimit, opts.RateWindow, opts.Clock),

		breakerSettings: settings,
		breakers:        hashmap.NewExpiring[string, *gobreaker.CircuitBreaker](breakerLifetime, opts.Clock),
	}, nil
}

// Fetch retrieves the current weather payload of a city.
// The call first waits for capacity in the rate window (one slot per Fetch, regardless of retries), then performs up
// to the configured amount of attempts separated by the fixed retry delay.
// The city's circuit breaker opens after repeated fetches exhausted their retry budget; while it is open, fetches of
// that city fail immediately without consuming a rate window slot.
// Any returned error is a *PermanentError; the payload is not checked for its shape (see Validate).
func (client *Client) Fetch(ctx context.Context, city string) (Payload, error) {
	result, err := client.breaker(city).Execute(func() (interface{}, error) {
		return client.fetch(ctx, city)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &PermanentError{City: city, Attempts: 0, Err: fmt.Errorf("%w: %s", ErrCircuitOpen, err.Error())}
		}
		return nil, err
	}
	return result.(Payload), nil
}

// breaker returns the circuit breaker of the given city
func (client *Client) breaker(city string) *gobreaker.CircuitBreaker {
	return client.breakers.GetOrSet(city, func() *gobreaker.CircuitBreaker {
		settings := client.breakerSettings
		settings.Name = "weather-provider:" + city
		return gobreaker.NewCircuitBreaker(settings)
	})
}

func (client *Client) fetch(ctx context.Context, city string) (Payload, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, &PermanentError{City: city, Attempts: 0, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= client.attempts; attempt++ {
		if attempt > 1 {
			if err := clock.Sleep(ctx, client.clock, client.retryDelay); err != nil {
				return nil, &PermanentError{City: city, Attempts: attempt - 1, Err: err}
			}
		}

		payload, err := client.request(ctx, city)
		if err == nil {
			return payload, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return nil, &PermanentError{City: city, Attempts: attempt, Err: err}
		}
		log.Warn().Err(err).Str("city", city).Int("attempt", attempt).Msg("weather provider request failed")
		lastErr = transient.Err
	}

	return nil, &PermanentError{City: city, Attempts: client.attempts, Err: lastErr, exhausted: true}
}

func (client *Client) request(ctx context.Context, city string) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.endpoint(city), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.http.Do(req)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("failed to fetch weather data: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &TransientError{Err: &StatusError{Code: resp.StatusCode}}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("failed to decode response body: %w", err)}
	}
	if payload == nil {
		// A JSON null is a well-formed document without any section
		payload = Payload{}
	}
	return payload, nil
}

func (client *Client) endpoint(city string) string {
	endpoint := *client.baseURL
	query := endpoint.Query()
	query.Set("access_key", client.apiKey)
	query.Set("query", city)
	endpoint.RawQuery = query.Encode()
	return endpoint.String()
}
