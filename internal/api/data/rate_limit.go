package data

import (
	"net"
	"net/http"
	"strconv"

	"github.com/skybi/weather-server/internal/api/schema"
	"golang.org/x/time/rate"
)

// DefaultReadRateLimit is used whenever the configured read rate limit is not positive
const DefaultReadRateLimit = 60

// MiddlewareRateLimit limits the amount of requests a single client address may issue per minute
func (service *Service) MiddlewareRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		max := service.readRateLimit()
		limiter := service.limiters.GetOrSet(clientAddress(request), func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(float64(max)/60), max)
		})
		if !limiter.Allow() {
			writer.Header().Set("Retry-After", strconv.Itoa(60/max+1))
			service.writer.WriteErrors(writer, http.StatusTooManyRequests, schema.ErrRateLimitExceeded(max))
			return
		}
		next(writer, request)
	}
}

func (service *Service) readRateLimit() int {
	if service.Config == nil || service.Config.ReadRateLimit < 1 {
		return DefaultReadRateLimit
	}
	return service.Config.ReadRateLimit
}

func clientAddress(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
