// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session"
	"github.com/ManuGH/golive/internal/log"
)

// Error codes returned in the "error" field of failure bodies.
const (
	CodeInvalidRequest = "invalid_request"
	CodeConflict       = "conflict"
	CodeUnavailable    = "unavailable"
	CodeTimeout        = "timeout"
	CodeUnauthorized   = "unauthorized"
	CodeInternal       = "internal"
)

// errInvalidBody marks request bodies that failed to decode.
var errInvalidBody = errors.New("invalid request body")

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// classify maps controller errors to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrValidation), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, session.ErrAlreadyActive),
		errors.Is(err, session.ErrStopInFlight),
		errors.Is(err, facing.ErrBusy):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("api")
		logger.Debug().Err(err).Msg("response encode failed")
	}
}

// writeError writes the classified error. Internal errors hide their detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := ErrorBody{Error: code, Detail: err.Error()}
	if status == http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		body.Detail = "internal error"
	}
	writeJSON(w, status, body)
}
