// Package shared holds the response envelope helpers used by every handler.
package shared

import (
	"encoding/json"
	"net/http"

	domainerrors "msmeclinic/pkg/domain-errors"
)

// SuccessEnvelope is the body shape for every successful response.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorEnvelope is the body shape for every error response.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries the stable machine-readable code and human message.
type ErrorBody struct {
	Code    domainerrors.Code         `json:"code"`
	Message string                    `json:"message"`
	Details []domainerrors.FieldError `json:"details,omitempty"`
}

// WriteSuccess writes a {success:true,...} envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError renders err as an error envelope. Non-domain errors are masked
// as SERVER_ERROR so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	de := domainerrors.From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(de.Code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Success: false,
		Error: ErrorBody{
			Code:    de.Code,
			Message: de.Message,
			Details: de.Fields,
		},
	})
}
