package api

import (
	"net"

	"github.com/rs/zerolog/log"
	"github.com/skybi/weather-server/internal/api/data"
	"github.com/skybi/weather-server/internal/config"
	"github.com/skybi/weather-server/internal/storage"
)

// Service represents the API service serving stored weather readings
type Service struct {
	Config  *config.Config
	Storage storage.Driver
	data    *data.Service
}

// Startup starts up the data API.
// Binding the listen address happens synchronously; errors raised while serving are sent to errs.
func (service *Service) Startup(errs chan<- error) error {
	dataService := &data.Service{
		Config:  service.Config,
		Storage: service.Storage,
	}
	if err := dataService.Startup(errs); err != nil {
		return err
	}
	service.data = dataService
	log.Debug().Str("address", dataService.Addr().String()).Msg("the data API is listening")
	return nil
}

// Addr returns the address the data API listens on; nil if it is not running
func (service *Service) Addr() net.Addr {
	if service.data == nil {
		return nil
	}
	return service.data.Addr()
}

// Shutdown shuts down the data API
func (service *Service) Shutdown() {
	if service.data != nil {
		service.data.Shutdown()
		service.data = nil
	}
}
