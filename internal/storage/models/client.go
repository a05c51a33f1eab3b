package models

import (
	"time"
)

// Client represents a therapy/coaching client owned by one therapist.
// The calendar references clients but never owns their lifecycle.
type Client struct {
	ID          string    `json:"id"`
	TherapistID string    `json:"therapist_id"`
	DisplayName string    `json:"display_name"`
	Tags        *string   `json:"tags,omitempty"` // free-form JSON blob
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
