package schedule

import (
	"time"

	"github.com/practice-planner/backend/internal/storage/models"
)

// MaxOccurrences caps a recurring series at 52 events total (base
// included) when no explicit end date bounds it.
const MaxOccurrences = 52

// Occurrence is one derived instance of a recurring series: the series
// index (1-based; the base event is index 0 and is never re-emitted) and
// the shifted start/end times.
type Occurrence struct {
	Index int
	Start time.Time
	End   time.Time
}

// ExpandRecurrence generates the derived occurrences of a recurring event.
//
// Index i shifts the base date by i days (daily), i*7 days (weekly) or i
// months (monthly). Monthly shifts use AddDate's overflow-normalizing
// arithmetic: Jan 31 + 1 month lands on Mar 2/3, matching the behavior the
// stored series were created with. Expansion stops before emitting an
// occurrence whose date is past until (compared at day granularity).
//
// The caller persists the result; nothing here touches storage.
func ExpandRecurrence(start, end time.Time, pattern string, until *time.Time) []Occurrence {
	if !models.ValidPattern(pattern) {
		return nil
	}

	var untilDate time.Time
	if until != nil {
		untilDate = Date(*until)
	}

	var out []Occurrence
	for i := 1; i < MaxOccurrences; i++ {
		occStart := shift(start, pattern, i)
		if until != nil && Date(occStart).After(untilDate) {
			break
		}
		out = append(out, Occurrence{
			Index: i,
			Start: occStart,
			End:   shift(end, pattern, i),
		})
	}

	return out
}

func shift(t time.Time, pattern string, i int) time.Time {
	switch pattern {
	case models.RecurrenceDaily:
		return t.AddDate(0, 0, i)
	case models.RecurrenceWeekly:
		return t.AddDate(0, 0, i*7)
	case models.RecurrenceMonthly:
		return t.AddDate(0, i, 0)
	}
	return t
}
