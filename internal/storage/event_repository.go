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

// ErrEventNotFound is returned when an event id matches no row.
var ErrEventNotFound = errors.New("event not found")

const eventColumns = `id, user_id, title, start_time, end_time, client_id, client_name,
	       is_recurring, recurrence_pattern, recurrence_end_date, series_id, color,
	       created_at, updated_at`

// EventRepository provides data access for calendar events.
//
// All errors are surfaced to the caller; a failed list is never collapsed
// into an empty result, so "no events" and "query failed" stay
// distinguishable.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ListByUser retrieves all events for a user, ordered by start time ascending.
func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE user_id = ?
		ORDER BY start_time ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByID retrieves a single event by its id.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	ev := &models.CalendarEvent{}

	var pattern sql.NullString
	err := r.DB().QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events WHERE id = ?
	`, id).Scan(
		&ev.ID, &ev.UserID, &ev.Title, &ev.StartTime, &ev.EndTime,
		&ev.ClientID, &ev.ClientName, &ev.IsRecurring, &pattern,
		&ev.RecurrenceEndDate, &ev.SeriesID, &ev.Color,
		&ev.CreatedAt, &ev.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}

	ev.RecurrencePattern = pattern.String
	return ev, nil
}

// Create inserts one event. A missing id is assigned; generated recurrence
// occurrences arrive with their derived "<base>_<n>" id already set.
func (r *EventRepository) Create(ctx context.Context, ev *models.CalendarEvent) error {
	return r.createIn(ctx, r.DB(), ev)
}

// CreateSeries inserts the base event and all of its generated occurrences
// in a single transaction, so a failure leaves no partial series behind.
func (r *EventRepository) CreateSeries(ctx context.Context, base *models.CalendarEvent, occurrences []models.CalendarEvent) error {
	return r.Transaction(func(tx *sql.Tx) error {
		if err := r.createIn(ctx, tx, base); err != nil {
			return err
		}
		for i := range occurrences {
			if err := r.createIn(ctx, tx, &occurrences[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EventRepository) createIn(ctx context.Context, q Queryable, ev *models.CalendarEvent) error {
	if ev.ID == "" {
		ev.ID = GenerateID()
	}
	now := r.Now()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	_, err := q.ExecContext(ctx, `
		INSERT INTO calendar_events (
			id, user_id, title, start_time, end_time, client_id, client_name,
			is_recurring, recurrence_pattern, recurrence_end_date, series_id, color,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID, ev.UserID, ev.Title, ev.StartTime, ev.EndTime,
		ev.ClientID, ev.ClientName, ev.IsRecurring, nullIfEmpty(ev.RecurrencePattern),
		ev.RecurrenceEndDate, ev.SeriesID, ev.Color,
		ev.CreatedAt, ev.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting event %s: %w", ev.ID, err)
	}

	return nil
}

// EventUpdate carries the fields of a partial update. Nil fields are left
// untouched; editing a single occurrence never alters its series siblings.
type EventUpdate struct {
	Title             *string
	StartTime         *time.Time
	EndTime           *time.Time
	ClientID          **string
	ClientName        **string
	IsRecurring       *bool
	RecurrencePattern *string
	RecurrenceEndDate **time.Time
	Color             *string
}

// Update applies exactly the supplied fields to one event and returns the
// updated row.
func (r *EventRepository) Update(ctx context.Context, id string, u EventUpdate) (*models.CalendarEvent, error) {
	sets := []string{"updated_at = ?"}
	args := []any{r.Now()}

	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, *u.StartTime)
	}
	if u.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, *u.EndTime)
	}
	if u.ClientID != nil {
		sets = append(sets, "client_id = ?")
		args = append(args, *u.ClientID)
	}
	if u.ClientName != nil {
		sets = append(sets, "client_name = ?")
		args = append(args, *u.ClientName)
	}
	if u.IsRecurring != nil {
		sets = append(sets, "is_recurring = ?")
		args = append(args, *u.IsRecurring)
	}
	if u.RecurrencePattern != nil {
		sets = append(sets, "recurrence_pattern = ?")
		args = append(args, nullIfEmpty(*u.RecurrencePattern))
	}
	if u.RecurrenceEndDate != nil {
		sets = append(sets, "recurrence_end_date = ?")
		args = append(args, *u.RecurrenceEndDate)
	}
	if u.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *u.Color)
	}

	args = append(args, id)
	result, err := r.DB().ExecContext(ctx,
		"UPDATE calendar_events SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, ErrEventNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes exactly one event by id.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// DeleteSeries removes the base event and every generated occurrence of a
// series. It matches on the explicit series_id column and, for rows written
// before that column existed, on the legacy "<base>_<n>" id convention.
// The underscore must be escaped: it is a single-character wildcard in
// SQLite LIKE patterns.
func (r *EventRepository) DeleteSeries(ctx context.Context, baseID string) (int64, error) {
	result, err := r.DB().ExecContext(ctx, `
		DELETE FROM calendar_events
		WHERE series_id = ? OR id = ? OR id LIKE ? ESCAPE '\'
	`, baseID, baseID, likeEscape(baseID)+`\_%`)
	if err != nil {
		return 0, fmt.Errorf("deleting series %s: %w", baseID, err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// CountByUser returns how many events a user has.
func (r *EventRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM calendar_events WHERE user_id = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

// ListStartingBetween returns events whose start time falls within
// [from, to), across all users. Used by the reminder scheduler.
func (r *EventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying upcoming events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	for rows.Next() {
		var ev models.CalendarEvent
		var pattern sql.NullString
		if err := rows.Scan(
			&ev.ID, &ev.UserID, &ev.Title, &ev.StartTime, &ev.EndTime,
			&ev.ClientID, &ev.ClientName, &ev.IsRecurring, &pattern,
			&ev.RecurrenceEndDate, &ev.SeriesID, &ev.Color,
			&ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.RecurrencePattern = pattern.String
		events = append(events, ev)
	}

	return events, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// likeEscape escapes the LIKE metacharacters in a literal string so it can
// be embedded in a pattern with ESCAPE '\'.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
