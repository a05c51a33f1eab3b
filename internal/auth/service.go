// Package auth implements the identity layer: account sign-up/sign-in,
// bearer-token sessions, and password resets. The calendar core only ever
// consumes the user id a valid session resolves to.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
)

// Validation and credential errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailRequired      = errors.New("email is required")
	ErrSessionExpired     = errors.New("session expired")
)

// Service provides authentication operations over the user repository.
type Service struct {
	users      *storage.UserRepository
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewService creates an auth service. sessionTTL bounds how long a login
// stays valid; zero means 30 days.
func NewService(users *storage.UserRepository, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}

	return &Service{
		users:      users,
		sessionTTL: sessionTTL,
		resetTTL:   time.Hour,
	}
}

// SignUp registers a new account and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, ErrEmailRequired
	}
	if len(password) < 6 {
		return nil, nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// SignOut invalidates a session token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

// Session resolves a bearer token to its session and user. Expired
// sessions are deleted on sight.
func (s *Service) Session(ctx context.Context, token string) (*models.Session, *models.User, error) {
	session, err := s.users.GetSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	if session.Expired(time.Now().UTC()) {
		_ = s.users.DeleteSession(ctx, token)
		return nil, nil, ErrSessionExpired
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}

	return session, user, nil
}

// RequestPasswordReset issues a one-shot reset token for the account. To
// avoid leaking which emails are registered, an unknown email succeeds
// silently. There is no mailer; the token is logged for the operator.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}
		return err
	}

	reset := &models.PasswordReset{
		Token:     newToken(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(s.resetTTL),
	}
	if err := s.users.CreatePasswordReset(ctx, reset); err != nil {
		return err
	}

	log.Printf("Password reset requested for %s (token: %s)", user.Email, reset.Token)
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	reset, err := s.users.ConsumePasswordReset(ctx, token)
	if err != nil {
		return err
	}
	if time.Now().UTC().After(reset.ExpiresAt) {
		return ErrSessionExpired
	}

	return s.setPassword(ctx, reset.UserID, newPassword)
}

// UpdatePassword changes the password of an authenticated user.
func (s *Service) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}
	return s.setPassword(ctx, userID, newPassword)
}

// PruneSessions deletes expired sessions; used by the background sweep.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	return s.users.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func (s *Service) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *Service) openSession(ctx context.Context, userID string) (*models.Session, error) {
	session := &models.Session{
		Token:     newToken(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newToken returns 32 bytes of hex-encoded randomness.
func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
