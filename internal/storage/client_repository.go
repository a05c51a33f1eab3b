package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/practice-planner/backend/internal/storage/models"
)

// ErrClientNotFound is returned when a client id matches no row.
var ErrClientNotFound = errors.New("client not found")

// ClientRepository provides data access for therapy clients.
// The calendar only reads from it (client picker + name denormalization);
// the client screens own the writes.
type ClientRepository struct {
	BaseRepository
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ListByTherapist retrieves all clients of a therapist, newest first.
func (r *ClientRepository) ListByTherapist(ctx context.Context, therapistID string) ([]models.Client, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, therapist_id, display_name, tags, created_at, updated_at
		FROM clients
		WHERE therapist_id = ?
		ORDER BY created_at DESC
	`, therapistID)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.TherapistID, &c.DisplayName, &c.Tags, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

// GetByID retrieves a client by its id.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	c := &models.Client{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, therapist_id, display_name, tags, created_at, updated_at
		FROM clients WHERE id = ?
	`, id).Scan(&c.ID, &c.TherapistID, &c.DisplayName, &c.Tags, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying client: %w", err)
	}

	return c, nil
}

// Create inserts a new client.
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	c.ID = GenerateID()
	c.CreatedAt = r.Now()
	c.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO clients (id, therapist_id, display_name, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.TherapistID, c.DisplayName, c.Tags, c.CreatedAt, c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}

	return nil
}

// Update updates an existing client's display name and tags.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	c.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE clients SET display_name = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, c.DisplayName, c.Tags, c.UpdatedAt, c.ID)

	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrClientNotFound
	}

	return nil
}

// Delete removes a client by id.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrClientNotFound
	}

	return nil
}

// CountByTherapist returns how many clients a therapist has.
func (r *ClientRepository) CountByTherapist(ctx context.Context, therapistID string) (int, error) {
	var n int
	err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM clients WHERE therapist_id = ?", therapistID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting clients: %w", err)
	}
	return n, nil
}
