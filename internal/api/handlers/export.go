package handlers

import (
	"fmt"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/schedule"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
)

// ExportICS returns the user's calendar as an iCalendar file. Recurring
// events are exported as a single VEVENT with an RRULE instead of their
// stored occurrence rows, so subscribing calendar apps expand them natively.
func ExportICS(repo *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := repo.ListByUser(r.Context(), middleware.UserID(r))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query events")
			return
		}

		cal := ical.NewCalendar()
		cal.SetMethod(ical.MethodPublish)
		cal.SetProductId("-//practice-planner//calendar//EN")

		for i := range events {
			ev := &events[i]
			// Generated occurrences are represented by their base's RRULE.
			if ev.SeriesBase() != ev.ID {
				continue
			}

			ve := cal.AddEvent(ev.ID)
			ve.SetDtStampTime(time.Now().UTC())
			ve.SetStartAt(ev.StartTime.UTC())
			ve.SetEndAt(ev.EndTime.UTC())
			ve.SetSummary(ev.Title)
			if ev.ClientName != nil {
				ve.SetDescription(fmt.Sprintf("Client: %s", *ev.ClientName))
			}

			if ev.IsRecurring {
				rule, err := recurrenceRule(ev)
				if err == nil {
					ve.AddRrule(rule)
				}
			}
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
		w.Write([]byte(cal.Serialize()))
	}
}

// recurrenceRule builds the RRULE value for a recurring base event,
// mirroring the stored expansion: bounded by the end date when set,
// otherwise capped at the occurrence limit.
func recurrenceRule(ev *models.CalendarEvent) (string, error) {
	opt := rrule.ROption{Dtstart: ev.StartTime.UTC()}

	switch ev.RecurrencePattern {
	case models.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case models.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case models.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("unknown recurrence pattern %q", ev.RecurrencePattern)
	}

	if ev.RecurrenceEndDate != nil {
		// Inclusive of any occurrence starting on the end date itself.
		until := ev.RecurrenceEndDate.UTC()
		opt.Until = time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, time.UTC)
	} else {
		opt.Count = schedule.MaxOccurrences
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", err
	}
	// RRuleString omits the DTSTART line; the VEVENT already carries one.
	return rule.OrigOptions.RRuleString(), nil
}
