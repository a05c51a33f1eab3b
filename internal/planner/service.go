// Package planner orchestrates calendar event editing: the create-vs-update
// decision, recurrence expansion, single-vs-series deletion, and the change
// notifications other dashboard tabs rely on.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/practice-planner/backend/internal/schedule"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
)

// Validation errors surfaced to the form/handlers.
var (
	ErrTitleRequired  = errors.New("title is required")
	ErrInvalidPattern = errors.New("unknown recurrence pattern")
)

// EventStore is the slice of the event repository the planner needs.
type EventStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.CalendarEvent, error)
	GetByID(ctx context.Context, id string) (*models.CalendarEvent, error)
	Create(ctx context.Context, ev *models.CalendarEvent) error
	CreateSeries(ctx context.Context, base *models.CalendarEvent, occurrences []models.CalendarEvent) error
	Update(ctx context.Context, id string, u storage.EventUpdate) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, baseID string) (int64, error)
}

// ClientStore resolves client display names for denormalization.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
}

// Broadcaster pushes change notifications to the owning user's other open
// tabs. A nil broadcaster disables notifications.
type Broadcaster interface {
	EventCreated(ev *models.CalendarEvent, occurrences int)
	EventUpdated(ev *models.CalendarEvent)
	EventDeleted(userID, eventID string)
	SeriesDeleted(userID, baseID string, removed int64)
	Notify(userID, level, title, message string)
}

// Service implements the event edit/delete controller.
type Service struct {
	events      EventStore
	clients     ClientStore
	broadcaster Broadcaster
}

// NewService creates a planner service. broadcaster may be nil.
func NewService(events EventStore, clients ClientStore, broadcaster Broadcaster) *Service {
	return &Service{
		events:      events,
		clients:     clients,
		broadcaster: broadcaster,
	}
}

// EventDraft carries the editable fields of the event form.
type EventDraft struct {
	Title             string
	StartTime         time.Time
	EndTime           time.Time
	ClientID          *string
	IsRecurring       bool
	RecurrencePattern string
	RecurrenceEndDate *time.Time
	Color             string
}

// validate checks the draft and fills defaults. Title is the only required
// field; end-after-start is expected but deliberately not enforced.
func (d *EventDraft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.IsRecurring {
		if d.RecurrencePattern == "" {
			d.RecurrencePattern = models.RecurrenceWeekly
		}
		if !models.ValidPattern(d.RecurrencePattern) {
			return ErrInvalidPattern
		}
	} else {
		d.RecurrencePattern = ""
		d.RecurrenceEndDate = nil
	}
	d.Color = models.NormalizeColor(d.Color)
	return nil
}

// List loads the user's full event set, ordered by start time.
func (s *Service) List(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	return s.events.ListByUser(ctx, userID)
}

// Get fetches one event.
func (s *Service) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	return s.events.GetByID(ctx, id)
}

// Create persists a new event for the user. A recurring draft is expanded
// and the whole series (base + occurrences) is written in one transaction.
// It returns the persisted base event and the generated occurrences.
func (s *Service) Create(ctx context.Context, userID string, draft EventDraft) (*models.CalendarEvent, []models.CalendarEvent, error) {
	if err := draft.validate(); err != nil {
		return nil, nil, err
	}

	clientName, err := s.resolveClientName(ctx, draft.ClientID)
	if err != nil {
		return nil, nil, err
	}

	base := &models.CalendarEvent{
		ID:                storage.GenerateID(),
		UserID:            userID,
		Title:             draft.Title,
		StartTime:         draft.StartTime,
		EndTime:           draft.EndTime,
		ClientID:          draft.ClientID,
		ClientName:        clientName,
		IsRecurring:       draft.IsRecurring,
		RecurrencePattern: draft.RecurrencePattern,
		RecurrenceEndDate: draft.RecurrenceEndDate,
		Color:             draft.Color,
	}

	if !draft.IsRecurring {
		if err := s.events.Create(ctx, base); err != nil {
			return nil, nil, fmt.Errorf("creating event: %w", err)
		}
		if s.broadcaster != nil {
			s.broadcaster.EventCreated(base, 0)
		}
		return base, nil, nil
	}

	base.SeriesID = &base.ID
	occurrences := s.buildOccurrences(base, draft)

	if err := s.events.CreateSeries(ctx, base, occurrences); err != nil {
		return nil, nil, fmt.Errorf("creating series: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.EventCreated(base, len(occurrences))
	}
	return base, occurrences, nil
}

// buildOccurrences expands the draft into derived events. Each occurrence
// copies title/client/color/recurrence metadata from the base; ids follow
// the "<base>_<n>" convention and carry an explicit series id.
func (s *Service) buildOccurrences(base *models.CalendarEvent, draft EventDraft) []models.CalendarEvent {
	expanded := schedule.ExpandRecurrence(draft.StartTime, draft.EndTime, draft.RecurrencePattern, draft.RecurrenceEndDate)

	occurrences := make([]models.CalendarEvent, 0, len(expanded))
	for _, occ := range expanded {
		ev := *base
		ev.ID = base.ID + "_" + strconv.Itoa(occ.Index)
		ev.StartTime = occ.Start
		ev.EndTime = occ.End
		occurrences = append(occurrences, ev)
	}
	return occurrences
}

// Update edits exactly one occurrence. It never regenerates or touches the
// event's series siblings, even when recurrence fields change.
func (s *Service) Update(ctx context.Context, eventID string, draft EventDraft) (*models.CalendarEvent, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}

	clientName, err := s.resolveClientName(ctx, draft.ClientID)
	if err != nil {
		return nil, err
	}

	updated, err := s.events.Update(ctx, eventID, storage.EventUpdate{
		Title:             &draft.Title,
		StartTime:         &draft.StartTime,
		EndTime:           &draft.EndTime,
		ClientID:          &draft.ClientID,
		ClientName:        &clientName,
		IsRecurring:       &draft.IsRecurring,
		RecurrencePattern: &draft.RecurrencePattern,
		RecurrenceEndDate: &draft.RecurrenceEndDate,
		Color:             &draft.Color,
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.EventUpdated(updated)
	}
	return updated, nil
}

// DeleteMode selects between removing one occurrence and a whole series.
type DeleteMode string

const (
	DeleteSingle DeleteMode = "single"
	DeleteAll    DeleteMode = "all"
)

// Delete removes an event. DeleteAll on a recurring event removes the base
// and every generated occurrence (matched by series id, with the legacy id
// prefix as fallback); everything else removes exactly one row.
// It returns the number of rows removed.
func (s *Service) Delete(ctx context.Context, eventID string, mode DeleteMode) (int64, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if mode == DeleteAll && ev.IsRecurring {
		baseID := ev.SeriesBase()
		removed, err := s.events.DeleteSeries(ctx, baseID)
		if err != nil {
			return 0, err
		}
		if s.broadcaster != nil {
			s.broadcaster.SeriesDeleted(ev.UserID, baseID, removed)
		}
		return removed, nil
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		return 0, err
	}
	if s.broadcaster != nil {
		s.broadcaster.EventDeleted(ev.UserID, eventID)
	}
	return 1, nil
}

// resolveClientName captures the referenced client's current display name
// at save time. The copy is deliberately not re-synced afterwards.
func (s *Service) resolveClientName(ctx context.Context, clientID *string) (*string, error) {
	if clientID == nil || *clientID == "" {
		return nil, nil
	}
	if s.clients == nil {
		return nil, nil
	}

	client, err := s.clients.GetByID(ctx, *clientID)
	if err != nil {
		if errors.Is(err, storage.ErrClientNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving client name: %w", err)
	}
	return &client.DisplayName, nil
}
