package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/freshfold/facility-api/internal/models"
)

// getOrdersHandler returns the facility's orders, newest first
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := strconv.Atoi(r.URL.Query().Get("page"))

	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))

	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	orders, err := s.orderService.GetAllOrders(ctx, facilityID(r), pageSize, offset)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	total, err := s.orderService.CountOrders(ctx, facilityID(r))

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: PaginationResponse{
			Items:      orders,
			TotalCount: total,
			Page:       page,
			PageSize:   pageSize,
		},
	})
}

// getOrderByIDHandler returns one order with its allowed next statuses
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	order, err := s.orderService.GetOrder(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"order":         order,
			"next_statuses": s.orderService.NextStatuses(models.OrderStatus(order.Status)),
		},
	})
}

// lookupOrderHandler resolves a scanned order number to an order
func (s *Server) lookupOrderHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	order, err := s.orderService.LookupOrder(r.Context(), facilityID(r), vars["number"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// getOrderHistoryHandler returns the status audit trail of an order
func (s *Server) getOrderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	logs, err := s.orderService.GetStatusHistory(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    logs,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// updateOrderStatusHandler moves an order along its lifecycle
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req updateStatusRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Status == "" {
		s.respondWithError(w, http.StatusBadRequest, "Status is required")
		return
	}

	order, err := s.orderService.UpdateOrderStatus(
		r.Context(),
		facilityID(r),
		vars["id"],
		models.OrderStatus(req.Status),
		req.Notes,
	)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}
