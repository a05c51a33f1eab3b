package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
)

// ProfileRequest is the upsert body for the user profile.
type ProfileRequest struct {
	Role     *string `json:"role,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	OrgName  *string `json:"org_name,omitempty"`
	Language *string `json:"language,omitempty"`
}

// GetProfile returns the authenticated user's profile, or an empty profile
// when none has been saved yet.
func GetProfile(repo *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		profile, err := repo.GetProfile(r.Context(), userID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query profile")
			return
		}
		if profile == nil {
			profile = &models.Profile{ID: userID}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	}
}

// PutProfile creates or replaces the authenticated user's profile.
func PutProfile(repo *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		profile := &models.Profile{
			ID:       middleware.UserID(r),
			Role:     req.Role,
			FullName: req.FullName,
			OrgName:  req.OrgName,
			Language: req.Language,
		}
		if err := repo.UpsertProfile(r.Context(), profile); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save profile")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	}
}
