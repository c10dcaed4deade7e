// Package shared holds the response helpers used by every feature handler so
// success and error payloads stay uniform across the API.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "beacon/pkg/domain-errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error to its HTTP status and writes a JSON error
// body. Unclassified errors collapse to 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	body := errorBody{Code: string(code)}
	var derr *dErrors.Error
	if errors.As(err, &derr) {
		body.Error = derr.Message
	} else {
		body.Error = "internal server error"
	}
	WriteJSON(w, status, body)
}
