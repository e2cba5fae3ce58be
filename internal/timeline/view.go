// Package timeline implements the layout engine for the loss dashboard:
// window resolution, event filtering, swim-lane assignment, annotation
// placement and axis construction. The result is a pure data structure;
// rendering lives elsewhere.
package timeline

import (
	"fmt"
	"strings"
	"time"
)

// View selects the calendar granularity of the timeline window.
type View int

const (
	ViewDay View = iota
	ViewWeek
	ViewMonth
)

func (v View) String() string {
	switch v {
	case ViewDay:
		return "day"
	case ViewWeek:
		return "week"
	case ViewMonth:
		return "month"
	default:
		return "day"
	}
}

// ParseView parses a view name (case-insensitive). Empty means day.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day":
		return ViewDay, nil
	case "week":
		return ViewWeek, nil
	case "month":
		return ViewMonth, nil
	default:
		return ViewDay, fmt.Errorf("unknown view %q", s)
	}
}

// Window is the absolute [Start, End) range visible at the current view.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// dayStartOffset shifts the visual day boundary to 05:00, matching the
// plant's shift schedule: a "day" runs 05:00 to 05:00.
const dayStartOffset = 5 * time.Hour

// ResolveWindow computes the visible window for a view and reference date.
// Day and Week spans are exact multiples of 24h from the offset boundary;
// Month follows the calendar with both edges shifted by the offset.
func ResolveWindow(v View, ref time.Time) Window {
	loc := ref.Location()
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)

	switch v {
	case ViewWeek:
		// Monday of the reference date's ISO week.
		back := (int(ref.Weekday()) + 6) % 7
		monday := midnight.AddDate(0, 0, -back)
		start := monday.Add(dayStartOffset)
		return Window{Start: start, End: start.Add(7 * 24 * time.Hour)}
	case ViewMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
		next := first.AddDate(0, 1, 0)
		return Window{Start: first.Add(dayStartOffset), End: next.Add(dayStartOffset)}
	default:
		start := midnight.Add(dayStartOffset)
		return Window{Start: start, End: start.Add(24 * time.Hour)}
	}
}

// RangeLabel is the human label for a resolved window, used in chart
// titles: "10.03.2025" for Day, "CW 11" for Week, "03.2025" for Month.
func RangeLabel(v View, ref time.Time, w Window) string {
	switch v {
	case ViewWeek:
		_, cw := w.Start.ISOWeek()
		return fmt.Sprintf("CW %d", cw)
	case ViewMonth:
		return ref.Format("01.2006")
	default:
		return ref.Format("02.01.2006")
	}
}
