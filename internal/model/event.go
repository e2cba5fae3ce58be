package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Event is one row of the loss event log. Raw spreadsheet fields are kept
// as entered; Start/End/DurationMinutes are derived once via Derive and
// never re-validated downstream.
type Event struct {
	Date        string   `json:"date"`        // DD.MM, year is fixed by config
	StartTime   string   `json:"start_time"`  // HH:MM
	EndTime     string   `json:"end_time"`    // HH:MM
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ScrapArea   float64  `json:"scrap_area"`  // m², missing coerced to 0
	BGradeArea  float64  `json:"bgrade_area"` // m², missing coerced to 0
	Reserved    string   `json:"reserved"`    // free-text yes/no
	Cost        *float64 `json:"cost,omitempty"`

	// Derived fields (zero when the raw fields are malformed).
	Start           time.Time `json:"start,omitempty"`
	End             time.Time `json:"end,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
}

// CombineDayMonth combines a DD.MM date string and an HH:MM clock string
// into an absolute instant in the given year and location. Returns false
// when either part is malformed.
func CombineDayMonth(date, clock string, year int, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	parts := strings.SplitN(strings.TrimSpace(date), ".", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation("15:04", strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, false
	}

	combined := time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), 0, 0, loc)
	// time.Date normalizes out-of-range days (e.g. 31.02); reject those.
	if combined.Day() != day || combined.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return combined, true
}

// Derive computes Start, End and DurationMinutes from the raw fields.
// Each instant is derived independently: a malformed end still leaves a
// parseable start usable for start-based aggregation. A non-positive
// span leaves DurationMinutes at 0. Valid reports the outcome.
func (e *Event) Derive(year int, loc *time.Location) {
	e.Start = time.Time{}
	e.End = time.Time{}
	e.DurationMinutes = 0

	start, ok := CombineDayMonth(e.Date, e.StartTime, year, loc)
	if !ok {
		return
	}
	e.Start = start

	end, ok := CombineDayMonth(e.Date, e.EndTime, year, loc)
	if !ok {
		return
	}
	e.End = end

	if end.After(start) {
		e.DurationMinutes = int(math.Round(end.Sub(start).Minutes()))
	}
}

// Valid reports whether the event has usable instants and a positive span.
// Invalid events never reach lane assignment.
func (e *Event) Valid() bool {
	return !e.Start.IsZero() && !e.End.IsZero() && e.End.After(e.Start)
}

// ScrapPlusBGrade is the combined scrap and B-grade area in m².
func (e *Event) ScrapPlusBGrade() float64 {
	return e.ScrapArea + e.BGradeArea
}

// CostValue returns the cost, with missing treated as 0.
func (e *Event) CostValue() float64 {
	if e.Cost == nil {
		return 0
	}
	return *e.Cost
}

// ReservedYes reports whether the free-text Reserved flag reads as "yes".
func (e *Event) ReservedYes() bool {
	return strings.EqualFold(strings.TrimSpace(e.Reserved), "yes")
}

// ReservedNo reports whether the free-text Reserved flag reads as "no".
func (e *Event) ReservedNo() bool {
	return strings.EqualFold(strings.TrimSpace(e.Reserved), "no")
}

// ParseNumber coerces a spreadsheet cell into a float64. Empty or
// non-numeric cells report false; callers decide between "0" and "missing".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// DeriveAll derives instants for every event in place.
func DeriveAll(events []Event, year int, loc *time.Location) {
	for i := range events {
		events[i].Derive(year, loc)
	}
}
