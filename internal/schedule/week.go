// Package schedule implements the weekly calendar core: date/week
// arithmetic, the hourly grid, and recurrence expansion. Everything here is
// pure computation; persistence lives in the storage package.
package schedule

import (
	"fmt"
	"iter"
	"time"
)

// SlotDuration is the height of one grid cell.
const SlotDuration = time.Hour

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns the Monday of the week containing d, at midnight.
// Sunday counts as day 7 so the offset never goes negative.
func WeekStart(d time.Time) time.Time {
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return Date(d).AddDate(0, 0, 1-wd)
}

// WeekDays returns the 7 consecutive dates of d's week, Monday first.
func WeekDays(d time.Time) []time.Time {
	start := WeekStart(d)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// WeekNumber returns the 1-based week number the dashboard displays.
//
// This is the legacy formula ceil((daysSinceJan1 + jan1Weekday + 1) / 7)
// with Sunday-as-0 weekday numbering. It is deliberately NOT ISO-8601
// (there is no year-boundary correction); existing screens depend on these
// exact values, so don't swap in a standard week algorithm.
func WeekNumber(d time.Time) int {
	jan1 := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
	daysSinceJan1 := d.YearDay() - 1
	n := daysSinceJan1 + int(jan1.Weekday()) + 1
	return (n + 6) / 7
}

// TimeSlots yields the hourly grid labels "01:00" through "23:00".
// The midnight slot is deliberately excluded. The sequence is lazy and can
// be ranged over any number of times.
func TimeSlots() iter.Seq[string] {
	return func(yield func(string) bool) {
		for hour := 1; hour < 24; hour++ {
			if !yield(fmt.Sprintf("%02d:00", hour)) {
				return
			}
		}
	}
}

// SlotMinutes parses a slot label into its [start, end) window expressed in
// minutes since midnight.
func SlotMinutes(slot string) (start, end int, err error) {
	var h, m int
	if _, err := fmt.Sscanf(slot, "%d:%d", &h, &m); err != nil {
		return 0, 0, fmt.Errorf("parsing slot %q: %w", slot, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("slot %q out of range", slot)
	}
	start = h*60 + m
	return start, start + 60, nil
}

// minuteOfDay returns t's offset into its day in minutes, ignoring the date.
// The grid compares events and slots by hour-of-day only.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
