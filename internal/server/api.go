package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

// UserResponse is a user in API responses.
type UserResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Status   string `json:"status"`
	Enrolled bool   `json:"enrolled"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.Users(r.Context())
	if err != nil {
		s.logger.Error("API: failed to list users", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Status:   u.Status,
			Enrolled: u.EnrolledFace != nil,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	info, err := s.service.Enrollment(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) deleteEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := s.service.RemoveEnrollment(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, biometric.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, biometric.ErrFormat):
		s.logger.Error("API: stored profile is corrupt", "error", err.Error())
		respondError(w, http.StatusUnprocessableEntity, "stored profile is corrupt")
	default:
		s.logger.Error("API: request failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (biometric.UserID, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return biometric.UserID(id), true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
