package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/freshfold/facility-api/internal/checkin"
	"github.com/freshfold/facility-api/internal/service"
)

// startCheckInHandler returns the check-in worksheet for a pending order:
// one row per line item with all inspection flags cleared.
func (s *Server) startCheckInHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	order, err := s.orderService.GetOrder(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	session, err := checkin.StartSession(*order)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"order": session.Order,
			"items": session.Items,
		},
	})
}

type completeCheckInRequest struct {
	Items []service.ItemInspection `json:"items"`
	Notes string                   `json:"notes,omitempty"`
}

// completeCheckInHandler commits a check-in, advancing the order into processing
func (s *Server) completeCheckInHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req completeCheckInRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	order, err := s.checkInService.CompleteCheckIn(r.Context(), facilityID(r), vars["id"], req.Items, req.Notes)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

type requestQuoteRequest struct {
	ItemID    string `json:"item_id"`
	IssueNote string `json:"issue_note,omitempty"`
}

// requestQuoteHandler raises a custom price quote for an item found damaged
// or unusual at check-in. Clients retrying on timeout should resend the same
// Idempotency-Key header to avoid duplicate quotes.
func (s *Server) requestQuoteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req requestQuoteRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.ItemID == "" {
		s.respondWithError(w, http.StatusBadRequest, "Item ID is required")
		return
	}

	quoteID, err := s.checkInService.RequestQuote(
		r.Context(),
		facilityID(r),
		vars["id"],
		service.ItemInspection{ItemID: req.ItemID, HasIssue: true, IssueNote: req.IssueNote},
		r.Header.Get("Idempotency-Key"),
	)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    map[string]string{"quote_id": quoteID},
	})
}
