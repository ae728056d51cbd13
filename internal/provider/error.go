package provider

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is returned when the circuit breaker guarding the provider does not admit requests
var ErrCircuitOpen = errors.New("the weather provider circuit breaker is open")

// ErrMissingCredentials is returned when the client is created without a base URL or API key
var ErrMissingCredentials = errors.New("the weather provider base URL and API key are required")

// StatusError represents an unexpected HTTP status code returned by the provider
type StatusError struct {
	Code int
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", err.Code)
}

// TransientError marks a failed attempt that may succeed when repeated (network errors, timeouts, undecodable
// bodies, rate limiting or server errors)
type TransientError struct {
	Err error
}

func (err *TransientError) Error() string {
	return "transient: " + err.Err.Error()
}

func (err *TransientError) Unwrap() error {
	return err.Err
}

// PermanentError is returned by Client.Fetch when a city could not be fetched, either because the retry budget was
// exhausted or because the failure is not retryable
type PermanentError struct {
	City     string
	Attempts int
	Err      error

	// exhausted marks failures that used up the whole retry budget; only those count against the city's breaker
	exhausted bool
}

func (err *PermanentError) Error() string {
	return fmt.Sprintf("could not fetch weather data for %s after %d attempt(s): %s", err.City, err.Attempts, err.Err.Error())
}

func (err *PermanentError) Unwrap() error {
	return err.Err
}

// MissingSectionError is returned when a provider response lacks a required section
type MissingSectionError struct {
	City    string
	Section string

	// Detail carries the provider's own error message if the response contained one
	Detail string
}

func (err *MissingSectionError) Error() string {
	msg := fmt.Sprintf("error fetching data for %s: '%s' key not found in response", err.City, err.Section)
	if err.Detail != "" {
		msg += " (provider said: " + err.Detail + ")"
	}
	return msg
}

// MissingFieldError is returned when a required field is absent from the provider response's current section
type MissingFieldError struct {
	City  string
	Field string
}

func (err *MissingFieldError) Error() string {
	return fmt.Sprintf("error fetching data for %s: '%s' key not found in response", err.City, err.Field)
}

// FieldTypeError is returned when a required field is present but not numeric
type FieldTypeError struct {
	City  string
	Field string
	Value any
}

func (err *FieldTypeError) Error() string {
	return fmt.Sprintf("error fetching data for %s: '%s' has unexpected type %T", err.City, err.Field, err.Value)
}
