package data

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/skybi/weather-server/internal/api/schema"
	"github.com/skybi/weather-server/internal/config"
	"github.com/skybi/weather-server/internal/hashmap"
	"github.com/skybi/weather-server/internal/storage"
	"golang.org/x/time/rate"
)

const (
	limiterLifetime        = 10 * time.Minute
	limiterCleanupInterval = time.Minute
)

// Service represents the data API service
type Service struct {
	server   *http.Server
	listener net.Listener

	Config  *config.Config
	Storage storage.Driver

	writer   *schema.Writer
	limiters *hashmap.ExpiringMap[string, *rate.Limiter]
}

// Startup binds the configured listen address and serves the data API in the background.
// Errors occurring after the address was bound are sent to errs.
func (service *Service) Startup(errs chan<- error) error {
	listener, err := net.Listen("tcp", service.Config.ListenAddress)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           service.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	service.server = server
	service.listener = listener
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	return nil
}

// Addr returns the address the data API listens on; nil before Startup
func (service *Service) Addr() net.Addr {
	if service.listener == nil {
		return nil
	}
	return service.listener.Addr()
}

// Shutdown shuts down the data API
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
		service.listener = nil
	}
	if service.limiters != nil {
		service.limiters.StopCleanupTask()
		service.limiters = nil
	}
}

// Router creates the HTTP router serving the data API
func (service *Service) Router() http.Handler {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msg("the data API experienced an unexpected error")
		},
	}

	// Create the per-client request limiters
	service.limiters = hashmap.NewExpiring[string, *rate.Limiter](limiterLifetime, nil)
	service.limiters.ScheduleCleanupTask(limiterCleanupInterval)

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.RedirectSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://*", "https://*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the API endpoint handlers
	service.registerEndpoints(router)
	return router
}

func (service *Service) registerEndpoints(router chi.Router) {
	// Register the weather reading endpoints
	readings := withMiddlewares(service.EndpointGetReadings, service.MiddlewareRateLimit)
	router.Get("/weather", readings)
	router.Get("/api/weather_data", readings)
}

// withMiddlewares wraps the handler so that the first middleware is executed first
func withMiddlewares(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
