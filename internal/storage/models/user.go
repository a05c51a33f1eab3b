package models

import (
	"time"
)

// User is an authenticated account. Passwords are stored as bcrypt hashes.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a bearer-token login session.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PasswordReset is a one-shot token allowing a password change.
type PasswordReset struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile holds per-user display settings, replacing the ad hoc device
// storage keys the dashboard used to read at every screen mount.
type Profile struct {
	ID        string    `json:"id"`
	Role      *string   `json:"role,omitempty"`
	FullName  *string   `json:"full_name,omitempty"`
	OrgName   *string   `json:"org_name,omitempty"`
	Language  *string   `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
