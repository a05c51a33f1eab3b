package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/planner"
	"github.com/practice-planner/backend/internal/schedule"
)

// CellEvent is the compact occupant representation in the week view.
type CellEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
	Past  bool   `json:"past"`
}

// SlotRow is one grid row: a time label plus the occupants of its seven
// day-cells, Monday first. Cells[d] is never nil.
type SlotRow struct {
	Label string        `json:"label"`
	Cells [][]CellEvent `json:"cells"`
}

// WeekViewResponse is the serialized weekly grid, so thin clients do not
// have to re-implement the slot overlap rule.
type WeekViewResponse struct {
	WeekStart  string    `json:"week_start"`
	WeekNumber int       `json:"week_number"`
	Days       []string  `json:"days"`
	Slots      []SlotRow `json:"slots"`
}

// WeekView renders the user's calendar for the week containing the anchor
// date (?anchor=YYYY-MM-DD, default today). Events are loaded once and an
// event appears in every slot cell its [start, end) interval overlaps.
func WeekView(svc *planner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchor := time.Now()
		if raw := r.URL.Query().Get("anchor"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "anchor must be YYYY-MM-DD")
				return
			}
			anchor = parsed
		}

		events, err := svc.List(r.Context(), middleware.UserID(r))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query events")
			return
		}

		grid := schedule.NewGrid(anchor)
		grid.SetEvents(events)

		now := time.Now()
		days := grid.WeekDays()

		resp := WeekViewResponse{
			WeekStart:  days[0].Format("2006-01-02"),
			WeekNumber: grid.WeekNumber(),
			Days:       make([]string, len(days)),
		}
		for i, day := range days {
			resp.Days[i] = day.Format("2006-01-02")
		}

		for slot := range schedule.TimeSlots() {
			row := SlotRow{Label: slot, Cells: make([][]CellEvent, len(days))}
			for i, day := range days {
				cell := []CellEvent{}
				for _, ev := range grid.CellOccupants(day, slot) {
					cell = append(cell, CellEvent{
						ID:    ev.ID,
						Title: ev.Title,
						Color: ev.Color,
						Past:  ev.IsPast(now),
					})
				}
				row.Cells[i] = cell
			}
			resp.Slots = append(resp.Slots, row)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
