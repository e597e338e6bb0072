package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// shipOrderHandler hands a processed order to the dispatch service and
// moves it to shipped.
func (s *Server) shipOrderHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	assignment, err := s.dispatchService.ShipOrder(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    assignment,
	})
}

// getPackageHandler returns the package assignment of an order
func (s *Server) getPackageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	assignment, err := s.dispatchService.GetPackage(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    assignment,
	})
}

// refreshPackageHandler pulls the latest delivery status from dispatch
func (s *Server) refreshPackageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	assignment, err := s.dispatchService.RefreshPackageStatus(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    assignment,
	})
}

// getDispatchBreakerHandler exposes the dispatch client's circuit breaker
// state for operations.
func (s *Server) getDispatchBreakerHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.dispatchClient.Breaker().GetMetrics(),
	})
}
