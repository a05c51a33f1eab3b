package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/practice-planner/backend/internal/schedule"
	"github.com/practice-planner/backend/internal/storage/models"
)

// FormState is the lifecycle state of one event form invocation.
type FormState int

const (
	FormClosed FormState = iota
	FormCreate
	FormEdit
	FormSaving
	FormDeleteConfirm
)

// String returns the state name.
func (s FormState) String() string {
	switch s {
	case FormClosed:
		return "closed"
	case FormCreate:
		return "create"
	case FormEdit:
		return "edit"
	case FormSaving:
		return "saving"
	case FormDeleteConfirm:
		return "delete-confirm"
	}
	return "unknown"
}

var errFormState = errors.New("invalid form state transition")

// Form models the event form's state machine:
//
//	Closed -> FormOpen(create|edit) -> [Saving | DeleteConfirm] -> Closed
//
// The Saving state doubles as the re-entrancy guard: a second submit while
// a save is in flight is rejected instead of issuing an overlapping call.
type Form struct {
	state   FormState
	draft   EventDraft
	editing *models.CalendarEvent
}

// NewForm returns a closed form.
func NewForm() *Form {
	return &Form{state: FormClosed}
}

// State returns the current form state.
func (f *Form) State() FormState {
	return f.state
}

// Draft exposes the editable fields for mutation while the form is open.
func (f *Form) Draft() *EventDraft {
	return &f.draft
}

// Editing returns the event being edited, or nil in create mode.
func (f *Form) Editing() *models.CalendarEvent {
	return f.editing
}

// OpenCreate opens the form for a new event anchored at the clicked empty
// cell: start prefilled from the slot, end one hour later.
func (f *Form) OpenCreate(day time.Time, slot string) error {
	if f.state != FormClosed {
		return fmt.Errorf("%w: open-create from %s", errFormState, f.state)
	}

	slotStart, _, err := schedule.SlotMinutes(slot)
	if err != nil {
		return err
	}

	start := schedule.Date(day).Add(time.Duration(slotStart) * time.Minute)
	f.draft = EventDraft{
		StartTime:         start,
		EndTime:           start.Add(schedule.SlotDuration),
		RecurrencePattern: models.RecurrenceWeekly,
		Color:             models.DefaultColor,
	}
	f.editing = nil
	f.state = FormCreate
	return nil
}

// OpenEdit opens the form prefilled from an existing event block,
// including its series membership.
func (f *Form) OpenEdit(ev *models.CalendarEvent) error {
	if f.state != FormClosed {
		return fmt.Errorf("%w: open-edit from %s", errFormState, f.state)
	}

	f.draft = EventDraft{
		Title:             ev.Title,
		StartTime:         ev.StartTime,
		EndTime:           ev.EndTime,
		ClientID:          ev.ClientID,
		IsRecurring:       ev.IsRecurring,
		RecurrencePattern: ev.RecurrencePattern,
		RecurrenceEndDate: ev.RecurrenceEndDate,
		Color:             ev.Color,
	}
	f.editing = ev
	f.state = FormEdit
	return nil
}

// Submit saves the draft. An empty title makes submission a no-op: the form
// stays open and no remote call is made. On failure the form also stays
// open (in its previous mode) so the user can retry; on success it closes.
// The returned event is the created base or the updated occurrence.
func (f *Form) Submit(ctx context.Context, svc *Service, userID string) (*models.CalendarEvent, error) {
	if f.state != FormCreate && f.state != FormEdit {
		return nil, fmt.Errorf("%w: submit from %s", errFormState, f.state)
	}

	draft := f.draft
	if err := draft.validate(); errors.Is(err, ErrTitleRequired) {
		return nil, nil
	}

	prev := f.state
	f.state = FormSaving

	var (
		ev  *models.CalendarEvent
		err error
	)
	if prev == FormEdit {
		ev, err = svc.Update(ctx, f.editing.ID, f.draft)
	} else {
		ev, _, err = svc.Create(ctx, userID, f.draft)
	}

	if err != nil {
		f.state = prev
		return nil, err
	}

	f.close()
	return ev, nil
}

// RequestDelete moves an edit-mode form into the confirmation step. The
// returned flag tells the caller whether to present the three-way series
// choice (recurring event) or a plain yes/no (single event).
func (f *Form) RequestDelete() (seriesChoice bool, err error) {
	if f.state != FormEdit {
		return false, fmt.Errorf("%w: delete from %s", errFormState, f.state)
	}
	f.state = FormDeleteConfirm
	return f.editing.IsRecurring, nil
}

// ConfirmDelete performs the deletion chosen in the confirmation step and
// closes the form. On failure the form returns to edit mode for retry.
func (f *Form) ConfirmDelete(ctx context.Context, svc *Service, mode DeleteMode) (int64, error) {
	if f.state != FormDeleteConfirm {
		return 0, fmt.Errorf("%w: confirm-delete from %s", errFormState, f.state)
	}

	removed, err := svc.Delete(ctx, f.editing.ID, mode)
	if err != nil {
		f.state = FormEdit
		return 0, err
	}

	f.close()
	return removed, nil
}

// CancelDelete backs out of the confirmation step into edit mode.
func (f *Form) CancelDelete() {
	if f.state == FormDeleteConfirm {
		f.state = FormEdit
	}
}

// Close dismisses the form without saving. A form mid-save cannot be
// closed; the pending call's result is simply discarded by the caller.
func (f *Form) Close() {
	if f.state == FormSaving {
		return
	}
	f.close()
}

func (f *Form) close() {
	f.state = FormClosed
	f.editing = nil
	f.draft = EventDraft{}
}
