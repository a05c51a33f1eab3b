package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/auth"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      *models.User `json:"user"`
}

func newSessionResponse(s *models.Session, u *models.User) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		User:      u,
	}
}

// SignUp registers a new account and returns a fresh session token.
func SignUp(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		user, session, err := authSvc.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrEmailRequired), errors.Is(err, auth.ErrPasswordTooShort):
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			case errors.Is(err, storage.ErrEmailTaken):
				middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Email already registered")
			default:
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create account")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(newSessionResponse(session, user))
	}
}

// SignIn verifies credentials and returns a session token.
func SignIn(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		user, session, err := authSvc.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid email or password")
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to sign in")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newSessionResponse(session, user))
	}
}

// SignOut invalidates the presented session token.
func SignOut(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Token is required")
			return
		}

		if err := authSvc.SignOut(r.Context(), req.Token); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to sign out")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetSession resolves a token to its session and user, the dashboard's
// "who am I" call on mount.
func GetSession(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Token is required")
			return
		}

		session, user, err := authSvc.Session(r.Context(), token)
		if err != nil {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid or expired session")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newSessionResponse(session, user))
	}
}

// RequestPasswordReset issues a reset token. The response is the same
// whether or not the email exists.
func RequestPasswordReset(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if err := authSvc.RequestPasswordReset(r.Context(), req.Email); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to request reset")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func ConfirmPasswordReset(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		err := authSvc.ResetPassword(r.Context(), req.Token, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrPasswordTooShort):
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			case errors.Is(err, storage.ErrResetNotFound), errors.Is(err, auth.ErrSessionExpired):
				middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid or expired reset token")
			default:
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to reset password")
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdatePassword changes the authenticated user's password.
func UpdatePassword(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		err := authSvc.UpdatePassword(r.Context(), middleware.UserID(r), req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooShort) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update password")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
