package data

import (
	"net/http"
	"strings"

	"github.com/skybi/weather-server/internal/api/schema"
	"github.com/skybi/weather-server/internal/api/validation"
	"github.com/skybi/weather-server/internal/weather"
)

var sortValues = func() []string {
	var values []string
	for _, name := range weather.ColumnNames() {
		values = append(values, name, "-"+name)
	}
	return values
}()

// EndpointGetReadings handles the 'GET /weather?city_name={string...}&limit={number?}&sort={[-]column?}' endpoint
func (service *Service) EndpointGetReadings(writer http.ResponseWriter, request *http.Request) {
	var validationErrs []*schema.Error

	cities, validationErr := validation.QueryStrings(request, "city_name", true)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	limit, validationErr := validation.QueryNumber(request, "limit", false, 0, 1, 1000)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	sort, validationErr := validation.QueryEnum(request, "sort", sortValues)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	values := make([]any, 0, len(cities))
	for _, city := range cities {
		values = append(values, city)
	}
	query := &weather.Query{
		Filter: weather.NewFilter().In(weather.ColumnCityName, values...),
		Limit:  uint64(limit),
	}
	if sort != "" {
		query.OrderBy = &weather.Order{
			Column:     weather.Column(strings.TrimPrefix(sort, "-")),
			Descending: strings.HasPrefix(sort, "-"),
		}
	}

	readings, err := service.Storage.Readings().Find(request.Context(), query)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(readings) == 0 {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrReadingsNotFound(cities))
		return
	}

	service.writer.WriteJSON(writer, readings)
}
