package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/arteria/pkg/errors"
)

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError classifies err and writes it as an ErrorBody. Internal errors
// never leak their cause to the client.
func WriteError(w http.ResponseWriter, err error) {
	err = errors.Classify(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	WriteJSON(w, StatusFor(code), ErrorBody{Code: code, Message: msg})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidLabel, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSamplingExhausted, errors.ErrCodeJunctionUnsolvable, errors.ErrCodeDegenerateGeometry:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCanceled:
		// nginx's "client closed request"
		return 499
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
