package api

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginHandler authenticates a facility operator and returns a session token
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		s.respondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, facility, err := s.authService.Login(r.Context(), req.Email, req.Password)

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"token":    token,
			"facility": facility,
		},
	})
}

// getProfileHandler returns the authenticated facility's profile
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	facility, err := s.authService.GetFacility(r.Context(), facilityID(r))

	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    facility,
	})
}
