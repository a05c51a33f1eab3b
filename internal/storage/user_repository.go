package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/practice-planner/backend/internal/storage/models"
)

// Errors returned by account lookups.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrResetNotFound   = errors.New("password reset token not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// UserRepository provides data access for accounts, sessions, password
// resets and profiles.
type UserRepository struct {
	BaseRepository
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = GenerateID()
	u.CreatedAt = r.Now()
	u.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves an account by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return u, nil
}

// GetUserByID retrieves an account by id.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return u, nil
}

// UpdatePassword replaces an account's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, r.Now(), userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// CreateSession inserts a login session.
func (r *UserRepository) CreateSession(ctx context.Context, s *models.Session) error {
	s.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)

	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by token.
func (r *UserRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	s := &models.Session{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at
		FROM sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	return s, nil
}

// DeleteSession removes a session (sign-out).
func (r *UserRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.DB().ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes sessions past their expiry.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// CountActiveSessions returns the number of unexpired sessions.
func (r *UserRepository) CountActiveSessions(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at >= ?", now,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

// CreatePasswordReset inserts a one-shot password reset token.
func (r *UserRepository) CreatePasswordReset(ctx context.Context, pr *models.PasswordReset) error {
	pr.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, pr.Token, pr.UserID, pr.CreatedAt, pr.ExpiresAt)

	if err != nil {
		return fmt.Errorf("inserting password reset: %w", err)
	}

	return nil
}

// ConsumePasswordReset fetches and deletes a reset token in one transaction.
func (r *UserRepository) ConsumePasswordReset(ctx context.Context, token string) (*models.PasswordReset, error) {
	pr := &models.PasswordReset{}

	err := r.Transaction(func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT token, user_id, created_at, expires_at
			FROM password_resets WHERE token = ?
		`, token)
		if err := row.Scan(&pr.Token, &pr.UserID, &pr.CreatedAt, &pr.ExpiresAt); err != nil {
			if err == sql.ErrNoRows {
				return ErrResetNotFound
			}
			return fmt.Errorf("querying password reset: %w", err)
		}

		_, err := tx.ExecContext(ctx, "DELETE FROM password_resets WHERE token = ?", token)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pr, nil
}

// GetProfile retrieves a user's profile, or nil when none exists yet.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, role, full_name, org_name, language, created_at, updated_at
		FROM profiles WHERE id = ?
	`, userID).Scan(&p.ID, &p.Role, &p.FullName, &p.OrgName, &p.Language, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return p, nil
}

// UpsertProfile creates or updates a user's profile.
func (r *UserRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	now := r.Now()
	p.UpdatedAt = now

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO profiles (id, role, full_name, org_name, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role = excluded.role,
			full_name = excluded.full_name,
			org_name = excluded.org_name,
			language = excluded.language,
			updated_at = excluded.updated_at
	`, p.ID, p.Role, p.FullName, p.OrgName, p.Language, now, now)

	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
