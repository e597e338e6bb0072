package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/freshfold/facility-api/internal/checkin"
	"github.com/freshfold/facility-api/internal/lifecycle"
	"github.com/freshfold/facility-api/internal/metrics"
	"github.com/freshfold/facility-api/internal/repository"
	apperrors "github.com/freshfold/facility-api/pkg/errors"
)

// ApiResponse is the envelope for every JSON response
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginationResponse wraps a paged list
type PaginationResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}

// Health is the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// healthCheckHandler reports liveness, including database reachability
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("Health check database ping failed", "error", err)
		status = "degraded"
	}

	health := Health{
		Status:    status,
		Version:   "0.1.0",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	s.respondWithJSON(w, code, ApiResponse{
		Success: status == "ok",
		Data:    health,
	})
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithServiceError maps domain and repository errors onto HTTP codes
func (s *Server) respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &appErr):
		s.respondWithError(w, appErr.StatusCode, appErr.Message)
	case errors.Is(err, repository.ErrNotFound):
		s.respondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, checkin.ErrOrderNotPending),
		errors.Is(err, checkin.ErrIncompleteCheckIn),
		errors.Is(err, checkin.ErrNoIssueFlagged):
		s.respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, metrics.ErrUnknownRange),
		errors.Is(err, checkin.ErrItemNotFound):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Unhandled service error", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
