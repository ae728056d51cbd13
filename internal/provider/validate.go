package provider

import (
	"encoding/json"

	"github.com/skybi/weather-server/internal/weather"
)

const (
	SectionCurrent   = "current"
	FieldTemperature = "temperature"
	FieldPressure    = "pressure"
	FieldHumidity    = "humidity"
)

// Payload represents a decoded provider response body
type Payload map[string]any

// errorInfo extracts the message of a provider error payload ({"success": false, "error": {"info": "..."}})
func (payload Payload) errorInfo() string {
	section, ok := payload["error"].(map[string]any)
	if !ok {
		return ""
	}
	info, _ := section["info"].(string)
	return info
}

// Validate checks that a payload carries the current section with temperature, pressure and humidity and extracts
// them. Numbers are taken as the provider sends them; pressure and humidity are truncated to integers.
func Validate(city string, payload Payload) (weather.Observation, error) {
	raw, ok := payload[SectionCurrent]
	if !ok || raw == nil {
		return weather.Observation{}, &MissingSectionError{
			City:    city,
			Section: SectionCurrent,
			Detail:  payload.errorInfo(),
		}
	}
	current, ok := raw.(map[string]any)
	if !ok {
		return weather.Observation{}, &FieldTypeError{City: city, Field: SectionCurrent, Value: raw}
	}

	temperature, err := numberField(city, current, FieldTemperature)
	if err != nil {
		return weather.Observation{}, err
	}
	pressure, err := numberField(city, current, FieldPressure)
	if err != nil {
		return weather.Observation{}, err
	}
	humidity, err := numberField(city, current, FieldHumidity)
	if err != nil {
		return weather.Observation{}, err
	}

	return weather.Observation{
		Temperature: temperature,
		Pressure:    int(pressure),
		Humidity:    int(humidity),
	}, nil
}

func numberField(city string, section map[string]any, field string) (float64, error) {
	raw, ok := section[field]
	if !ok {
		return 0, &MissingFieldError{City: city, Field: field}
	}
	switch value := raw.(type) {
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, &FieldTypeError{City: city, Field: field, Value: raw}
		}
		return parsed, nil
	default:
		return 0, &FieldTypeError{City: city, Field: field, Value: raw}
	}
}
