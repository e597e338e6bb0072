package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/freshfold/facility-api/internal/metrics"
)

// getDashboardHandler returns the home screen counters and recent orders
func (s *Server) getDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.statsService.GetDashboard(r.Context(), facilityID(r))

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    dashboard,
	})
}

// getStatisticsHandler returns the stats screen payload for a time range
func (s *Server) getStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	rangeName := r.URL.Query().Get("range")

	if rangeName == "" {
		rangeName = string(metrics.RangeWeek)
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("categories"))

	if err != nil || limit < 1 {
		limit = metrics.DefaultCategoryLimit
	}

	stats, err := s.statsService.GetStatistics(
		r.Context(),
		facilityID(r),
		metrics.Range(rangeName),
		limit,
		time.Now(),
	)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    stats,
	})
}
