// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cycles/internal/community"
	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the body of simple acknowledgements.
type messageResponse struct {
	Message string `json:"message"`
}

// respondJSON writes data as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes {"error": message}. err is logged, never sent.
func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		event := logging.Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Error()
		}
		event.Err(err).Int("status", status).Msg(message)
	}
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps a community.Error onto an HTTP status.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *community.Error
	if !errors.As(err, &svcErr) {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Unhandled service error")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case community.KindValidation:
		status = http.StatusBadRequest
	case community.KindAuth:
		status = http.StatusUnauthorized
	case community.KindNotFound:
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Request failed")
	}
	respondJSON(w, status, errorResponse{Error: svcErr.Message})
}

// decodeAndValidate reads a JSON body into dst and validates its tags. On
// failure it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Request body is required", nil)
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondError(w, http.StatusBadRequest, verr.FirstMessage(), nil)
		return false
	}
	return true
}

// getIntParam parses a query parameter, returning defaultValue when the
// parameter is missing or not an integer.
func getIntParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// sanitizeLogValue strips control characters from user-supplied values
// before logging them.
func sanitizeLogValue(s string) string {
	const maxLen = 256
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
