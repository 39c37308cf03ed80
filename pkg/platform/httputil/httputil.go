// Package httputil holds the shared HTTP response helpers: JSON writing and
// the coded-error to status mapping used by every handler.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "docaudit/pkg/domain-errors"
)

// WriteJSON writes the payload with the given status. Encoding failures are
// unrecoverable mid-response, so they are swallowed.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a coded error to an HTTP status. Internal errors omit the
// description so storage details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}

	var status int
	switch code {
	case dErrors.CodeBadRequest:
		status = http.StatusBadRequest
		body.ErrorDescription = errMessage(err)
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
		body.ErrorDescription = errMessage(err)
	case dErrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
		body.ErrorDescription = errMessage(err)
	default:
		status = http.StatusInternalServerError
		body.Error = "internal_error"
	}

	WriteJSON(w, status, body)
}

func errMessage(err error) string {
	var coded *dErrors.Error
	if dErrors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}

// DecodeJSON parses the request body into T, replying 400 on malformed input.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "malformed request body", "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		var zero T
		return zero, false
	}
	return req, true
}
