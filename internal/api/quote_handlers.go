package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/freshfold/facility-api/internal/models"
)

// getQuotesHandler returns the facility's quote requests, optionally
// filtered by status.
func (s *Server) getQuotesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))

	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))

	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	status := models.QuoteStatus(r.URL.Query().Get("status"))

	quotes, err := s.quoteService.GetQuotes(r.Context(), facilityID(r), status, pageSize, (page-1)*pageSize)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: PaginationResponse{
			Items:      quotes,
			TotalCount: len(quotes),
			Page:       page,
			PageSize:   pageSize,
		},
	})
}

// getQuoteByIDHandler returns one quote request
func (s *Server) getQuoteByIDHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	quote, err := s.quoteService.GetQuote(r.Context(), facilityID(r), vars["id"])

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    quote,
	})
}

type respondQuoteRequest struct {
	SuggestedPrice float64 `json:"suggested_price"`
	Note           string  `json:"note,omitempty"`
}

// respondQuoteHandler records the facility's suggested price for a quote
func (s *Server) respondQuoteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req respondQuoteRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.SuggestedPrice <= 0 {
		s.respondWithError(w, http.StatusBadRequest, "Suggested price must be greater than zero")
		return
	}

	quote, err := s.quoteService.RespondToQuote(r.Context(), facilityID(r), vars["id"], req.SuggestedPrice, req.Note)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    quote,
	})
}

// declineQuoteHandler marks a quote as declined
func (s *Server) declineQuoteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Note string `json:"note,omitempty"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		req.Note = ""
	}
	defer r.Body.Close()

	quote, err := s.quoteService.DeclineQuote(r.Context(), facilityID(r), vars["id"], req.Note)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    quote,
	})
}
