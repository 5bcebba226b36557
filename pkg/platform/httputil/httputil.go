// Package httputil holds the JSON response helpers shared by all HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "novabook/pkg/domain-errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto an HTTP status and a stable error body.
// Internal failures omit the description so driver details never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.ToHTTPStatus(err)
	body := errorBody{Error: string(dErrors.CodeOf(err))}

	if status < http.StatusInternalServerError {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			body.ErrorDescription = coded.Message
		}
	}

	WriteJSON(w, status, body)
}
