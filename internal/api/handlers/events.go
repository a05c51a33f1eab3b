package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/planner"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
)

// EventRequest is the create/update body for calendar events.
type EventRequest struct {
	Title             string  `json:"title"`
	StartTime         string  `json:"start_time"` // RFC 3339
	EndTime           string  `json:"end_time"`   // RFC 3339
	ClientID          *string `json:"client_id,omitempty"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurrencePattern string  `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *string `json:"recurrence_end_date,omitempty"` // YYYY-MM-DD
	Color             string  `json:"color,omitempty"`
}

func (req *EventRequest) toDraft() (planner.EventDraft, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return planner.EventDraft{}, errors.New("start_time must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return planner.EventDraft{}, errors.New("end_time must be RFC 3339")
	}

	var until *time.Time
	if req.RecurrenceEndDate != nil && *req.RecurrenceEndDate != "" {
		d, err := time.Parse("2006-01-02", *req.RecurrenceEndDate)
		if err != nil {
			return planner.EventDraft{}, errors.New("recurrence_end_date must be YYYY-MM-DD")
		}
		until = &d
	}

	return planner.EventDraft{
		Title:             req.Title,
		StartTime:         start,
		EndTime:           end,
		ClientID:          req.ClientID,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
		RecurrenceEndDate: until,
		Color:             req.Color,
	}, nil
}

// ListEvents returns the user's full event set, ordered by start time.
func ListEvents(svc *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.List(r.Context(), middleware.UserID(r))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query events")
			return
		}

		if events == nil {
			events = []models.CalendarEvent{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	}
}

// CreateEventResponse wraps the persisted base event and, for a recurring
// draft, the number of generated occurrences stored with it.
type CreateEventResponse struct {
	Event              *models.CalendarEvent `json:"event"`
	OccurrencesCreated int                   `json:"occurrences_created"`
}

// CreateEvent persists a new event; recurring drafts are expanded into
// their full series in a single transaction.
func CreateEvent(svc *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		draft, err := req.toDraft()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		base, occurrences, err := svc.Create(r.Context(), middleware.UserID(r), draft)
		if err != nil {
			if errors.Is(err, planner.ErrTitleRequired) || errors.Is(err, planner.ErrInvalidPattern) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create event")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CreateEventResponse{
			Event:              base,
			OccurrencesCreated: len(occurrences),
		})
	}
}

// GetEvent returns a single event owned by the user.
func GetEvent(svc *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev := ownedEvent(w, r, svc)
		if ev == nil {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ev)
	}
}

// UpdateEvent edits one occurrence. Series siblings are never touched.
func UpdateEvent(svc *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev := ownedEvent(w, r, svc)
		if ev == nil {
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		draft, err := req.toDraft()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		updated, err := svc.Update(r.Context(), ev.ID, draft)
		if err != nil {
			if errors.Is(err, planner.ErrTitleRequired) || errors.Is(err, planner.ErrInvalidPattern) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update event")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

// DeleteEvent removes one occurrence, or the whole series with ?mode=all
// on a recurring event.
func DeleteEvent(svc *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev := ownedEvent(w, r, svc)
		if ev == nil {
			return
		}

		mode := planner.DeleteSingle
		if r.URL.Query().Get("mode") == string(planner.DeleteAll) {
			mode = planner.DeleteAll
		}

		removed, err := svc.Delete(r.Context(), ev.ID, mode)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete event")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"deleted": removed})
	}
}

// ownedEvent loads the event from the route and enforces ownership.
// Foreign events 404 rather than 403 to avoid leaking ids.
func ownedEvent(w http.ResponseWriter, r *http.Request, svc *planner.Service) *models.CalendarEvent {
	ev, err := svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
		} else {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query event")
		}
		return nil
	}

	if ev.UserID != middleware.UserID(r) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
		return nil
	}

	return ev
}
