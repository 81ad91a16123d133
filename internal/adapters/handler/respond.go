// Package handler exposes the patient workflow over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/middleware"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations,omitempty"`
	Missing    []string           `json:"missing,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps an error to its status code and the uniform error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	body := errorResponse{Error: err.Error()}

	var verr *domain.ValidationError
	var terr *domain.TransitionError
	switch {
	case errors.As(err, &verr):
		body.Violations = verr.Violations
	case errors.As(err, &terr):
		body.Missing = terr.Missing
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", middleware.RequestID(r.Context())).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("request failed")
		if status == http.StatusInternalServerError {
			body.Error = "internal server error"
		}
	}
	writeJSON(w, status, body)
}

func errorStatus(err error) int {
	var (
		verr *domain.ValidationError
		terr *domain.TransitionError
		serr *domain.StoreError
		xerr *domain.ExternalServiceError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &terr):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrAdminExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAdminDeletion):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &xerr):
		return http.StatusBadGateway
	case errors.As(err, &serr):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body. A malformed body is answered with 400 and
// reported as false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
