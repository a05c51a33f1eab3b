// Package models contains the domain models for the application.
package models

import (
	"strings"
	"time"
)

// CalendarEvent represents one concrete appointment occurrence, whether
// standalone or generated as part of a recurring series.
type CalendarEvent struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	ClientID          *string    `json:"client_id,omitempty"`
	ClientName        *string    `json:"client_name,omitempty"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`
	SeriesID          *string    `json:"series_id,omitempty"`
	Color             string     `json:"color"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Recurrence pattern constants
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// ValidPattern reports whether p is a known recurrence pattern.
func ValidPattern(p string) bool {
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Event color palette. The dashboard offers exactly these eight colors;
// anything else is normalized to the default blue before persisting.
const (
	ColorBlue   = "#3b82f6"
	ColorGreen  = "#10b981"
	ColorPink   = "#ec4899"
	ColorPurple = "#8b5cf6"
	ColorAmber  = "#f59e0b"
	ColorRed    = "#ef4444"
	ColorCyan   = "#06b6d4"
	ColorGray   = "#6b7280"

	DefaultColor = ColorBlue
)

// Palette lists the selectable event colors in display order.
var Palette = []string{
	ColorBlue, ColorGreen, ColorPink, ColorPurple,
	ColorAmber, ColorRed, ColorCyan, ColorGray,
}

// NormalizeColor maps an arbitrary color string onto the palette,
// falling back to the default blue for anything unrecognized.
func NormalizeColor(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, p := range Palette {
		if c == p {
			return p
		}
	}
	return DefaultColor
}

// BaseID returns the series base id for an event id. Generated occurrences
// carry ids of the form "<base>_<n>"; the base event's id has no suffix.
func BaseID(id string) string {
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[:i]
	}
	return id
}

// InSeries reports whether the event with the given id belongs to the
// series identified by baseID, under the legacy id-prefix convention.
func InSeries(id, baseID string) bool {
	return id == baseID || strings.HasPrefix(id, baseID+"_")
}

// IsPast reports whether the event ended before now. Past events are
// rendered de-emphasized but stay fully interactive.
func (e *CalendarEvent) IsPast(now time.Time) bool {
	return e.EndTime.Before(now)
}

// SeriesBase returns the id used to match the whole series this event
// belongs to: the explicit series id when present, otherwise the id
// prefix convention.
func (e *CalendarEvent) SeriesBase() string {
	if e.SeriesID != nil && *e.SeriesID != "" {
		return *e.SeriesID
	}
	return BaseID(e.ID)
}
