// Package pareto aggregates loss metrics into ranked bar chart data:
// grouped sums by title, sorted descending, scoped to the same calendar
// window as the timeline.
package pareto

import (
	"sort"

	"lossdash/internal/model"
	"lossdash/internal/timeline"
)

// Metric selects which event field a Pareto chart sums.
type Metric int

const (
	// MetricCost sums the cost column (missing treated as 0).
	MetricCost Metric = iota
	// MetricScrapBGrade sums scrap plus B-grade area.
	MetricScrapBGrade
)

// AxisLabel is the Y-axis caption for the metric.
func (m Metric) AxisLabel() string {
	if m == MetricScrapBGrade {
		return "Scrap + B-Grade (m²)"
	}
	return "Cost (€)"
}

func (m Metric) value(ev *model.Event) float64 {
	if m == MetricScrapBGrade {
		return ev.ScrapPlusBGrade()
	}
	return ev.CostValue()
}

// Entry is one ranked bar: a title, its summed value and the category
// whose color the bar takes.
type Entry struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// FilterWindow keeps events whose start instant falls inside w. Only the
// start matters here: a row with a malformed end never reaches the
// timeline but still counts toward the charts. Rows without a parseable
// start have a zero instant and never match.
func FilterWindow(events []model.Event, w timeline.Window) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Start.IsZero() && w.Contains(ev.Start) {
			out = append(out, ev)
		}
	}
	return out
}

// ByTitle groups events by title, sums the metric and ranks descending.
// Events without a title are skipped. Ties keep ascending title order so
// the ranking is deterministic. A title's bar carries the category of the
// last event seen with that title.
func ByTitle(events []model.Event, m Metric) []Entry {
	sums := make(map[string]float64)
	cats := make(map[string]string)
	for i := range events {
		ev := &events[i]
		if ev.Title == "" {
			continue
		}
		sums[ev.Title] += m.value(ev)
		cats[ev.Title] = ev.Category
	}

	entries := make([]Entry, 0, len(sums))
	for title, v := range sums {
		entries = append(entries, Entry{Title: title, Category: cats[title], Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
	return entries
}
