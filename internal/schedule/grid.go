package schedule

import (
	"time"

	"github.com/practice-planner/backend/internal/storage/models"
)

// Grid owns the in-memory event set behind the weekly calendar view. It
// holds the user's full event list (loaded once) and an anchor date that
// selects the visible week; filtering down to cells happens at render time.
//
// A Grid belongs to one dashboard view and is not safe for concurrent use.
type Grid struct {
	anchor time.Time
	events []models.CalendarEvent
}

// NewGrid creates a grid anchored at the given date (usually "now").
func NewGrid(anchor time.Time) *Grid {
	return &Grid{anchor: anchor}
}

// SetEvents replaces the full in-memory event set, e.g. after the list is
// reloaded following a save.
func (g *Grid) SetEvents(events []models.CalendarEvent) {
	g.events = events
}

// Events returns the full in-memory event set, unfiltered by week.
func (g *Grid) Events() []models.CalendarEvent {
	return g.events
}

// Anchor returns the date the visible week is derived from.
func (g *Grid) Anchor() time.Time {
	return g.anchor
}

// PreviousWeek shifts the visible week back by 7 days.
func (g *Grid) PreviousWeek() {
	g.anchor = g.anchor.AddDate(0, 0, -7)
}

// NextWeek shifts the visible week forward by 7 days.
func (g *Grid) NextWeek() {
	g.anchor = g.anchor.AddDate(0, 0, 7)
}

// Today resets the visible week to the one containing now.
func (g *Grid) Today(now time.Time) {
	g.anchor = now
}

// WeekDays returns the 7 dates of the visible week, Monday first.
func (g *Grid) WeekDays() []time.Time {
	return WeekDays(g.anchor)
}

// WeekNumber returns the displayed week number for the visible week.
func (g *Grid) WeekNumber() int {
	return WeekNumber(g.anchor)
}

// CellOccupants returns the events occupying the (day, slot) cell: events
// whose start date equals day and whose [start, end) interval, compared by
// hour-of-day in minutes, overlaps the slot's one-hour window. An event
// spanning several hours therefore shows up in every slot it overlaps.
func (g *Grid) CellOccupants(day time.Time, slot string) []models.CalendarEvent {
	slotStart, slotEnd, err := SlotMinutes(slot)
	if err != nil {
		return nil
	}

	var occupants []models.CalendarEvent
	for _, ev := range g.events {
		if !SameDate(ev.StartTime, day) {
			continue
		}
		evStart := minuteOfDay(ev.StartTime)
		evEnd := minuteOfDay(ev.EndTime)
		if evStart < slotEnd && evEnd > slotStart {
			occupants = append(occupants, ev)
		}
	}

	return occupants
}

// RemoveEvent drops one event from the in-memory set by exact id match.
func (g *Grid) RemoveEvent(id string) {
	g.events = filterEvents(g.events, func(ev *models.CalendarEvent) bool {
		return ev.ID != id
	})
}

// RemoveSeries drops every event belonging to the series with the given
// base id, mirroring the backend's matching rule so the local set and the
// store stay in line without a full reload.
func (g *Grid) RemoveSeries(baseID string) {
	g.events = filterEvents(g.events, func(ev *models.CalendarEvent) bool {
		return ev.SeriesBase() != baseID
	})
}

// filterEvents copies the kept events into a fresh slice so the array the
// caller passed to SetEvents is never mutated.
func filterEvents(events []models.CalendarEvent, keep func(*models.CalendarEvent) bool) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for i := range events {
		if keep(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}
