package api

import (
	"encoding/json"
	"net/http"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError answers 400 with the message for caller mistakes and a
// generic 500 for everything else. The detail is only logged.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.IsClientError(err) {
		status = http.StatusBadRequest
	}

	var coded errors.Error
	if errors.As(err, &coded) {
		logger.ErrorWithCode(coded).Int("status", status).Msg("Request failed")
	} else {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	}

	respondJSON(w, status, ErrorResponse{Error: errors.PublicMessage(err)})
}
