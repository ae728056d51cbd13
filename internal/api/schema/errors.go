package schema

import "fmt"

var (
	// ErrInternal is sent whenever a request failed because of an unexpected server-side error
	ErrInternal = &Error{
		Type:    "generic.internal",
		Message: "An internal error occurred.",
	}
	ErrNotFound = &Error{
		Type:    "generic.notFound",
		Message: "Resource not found.",
	}
	ErrMethodNotAllowed = &Error{
		Type:    "generic.methodNotAllowed",
		Message: "Method not allowed.",
	}
)

// ErrReadingsNotFound is sent when no stored weather reading matches the requested cities
func ErrReadingsNotFound(cities []string) *Error {
	return &Error{
		Type:    "weather.notFound",
		Message: "No weather data found for the requested cities.",
		Details: map[string]interface{}{
			"city_name": cities,
		},
	}
}

// ErrRateLimitExceeded is sent when a client issued more requests than it may per minute
func ErrRateLimitExceeded(max int) *Error {
	return &Error{
		Type:    "data.access.rateLimitExceeded",
		Message: fmt.Sprintf("The requesting client is being rate limited (max. %d requests per minute).", max),
		Details: map[string]interface{}{
			"max": max,
		},
	}
}

// ErrorResponse represents the response structure sent by the data API whenever errors occurred
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []*Error `json:"errors"`
}

// Error represents a single error present in the ErrorResponse.
// Details is always encoded as an object, even if it is nil.
type Error struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}
