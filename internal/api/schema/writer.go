package schema

import (
	"encoding/json"
	"net/http"
)

// Writer helps writing unified API responses
type Writer struct {
	InternalErrorHook func(err error)
}

// WriteJSONCode writes the JSON representation of value to the given response writer using the given HTTP status code
func (writer *Writer) WriteJSONCode(rw http.ResponseWriter, code int, value interface{}) {
	val, err := json.Marshal(value)
	if err != nil {
		writer.WriteInternalError(rw, err)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	rw.Write(val)
}

// WriteJSON writes the JSON representation of value to the given response writer.
// This method sends 200 OK as the HTTP status code; use WriteJSONCode to use a different one.
func (writer *Writer) WriteJSON(rw http.ResponseWriter, value interface{}) {
	writer.WriteJSONCode(rw, http.StatusOK, value)
}

// WriteErrors sends an error response.
// The given errors are copied, so shared error values are never modified.
func (writer *Writer) WriteErrors(rw http.ResponseWriter, code int, errors ...*Error) {
	response := &ErrorResponse{
		Status: code,
		Errors: make([]*Error, 0, len(errors)),
	}
	for _, err := range errors {
		cpy := *err
		if cpy.Details == nil {
			cpy.Details = map[string]interface{}{}
		}
		response.Errors = append(response.Errors, &cpy)
	}
	writer.WriteJSONCode(rw, code, response)
}

// WriteInternalError processes an internal server error and writes it to the response
func (writer *Writer) WriteInternalError(rw http.ResponseWriter, err error) {
	if writer.InternalErrorHook != nil {
		writer.InternalErrorHook(err)
	}
	writer.WriteErrors(rw, http.StatusInternalServerError, ErrInternal)
}
