package pareto

import (
	"testing"
	"time"

	"lossdash/internal/model"
	"lossdash/internal/timeline"
)

func mkEvent(category, title, date, start, end string) model.Event {
	ev := model.Event{
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Category:  category,
		Title:     title,
	}
	ev.Derive(2025, time.UTC)
	return ev
}

func TestFilterWindow(t *testing.T) {
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	w := timeline.ResolveWindow(timeline.ViewDay, ref)

	events := []model.Event{
		mkEvent("Problem", "in", "10.03", "09:00", "10:00"),
		mkEvent("Problem", "open end", "10.03", "11:00", ""),
		mkEvent("Problem", "before boundary", "10.03", "04:30", "04:45"),
		mkEvent("Problem", "next day", "11.03", "09:00", "10:00"),
		mkEvent("Problem", "broken", "bad", "09:00", "10:00"),
	}

	got := FilterWindow(events, w)
	if len(got) != 2 {
		t.Fatalf("FilterWindow kept %d events: %+v", len(got), got)
	}
	if got[0].Title != "in" || got[1].Title != "open end" {
		t.Errorf("kept = %q, %q", got[0].Title, got[1].Title)
	}
	// A row with a start but no usable end never reaches the timeline but
	// still counts toward the charts.
	if got[1].Valid() {
		t.Error("open-ended row should not be timeline-valid")
	}
}

func TestByTitleCost(t *testing.T) {
	c1, c2, c3 := 100.0, 50.0, 200.0
	events := []model.Event{
		{Title: "Walzenbruch", Category: "Technical Break Down", Cost: &c1},
		{Title: "Reinigung", Category: "Reinigen", Cost: &c2},
		{Title: "Walzenbruch", Category: "Problem", Cost: &c3},
		{Title: "", Category: "Problem", Cost: &c1}, // untitled rows never rank
		{Title: "Ohne Kosten", Category: "Bemerkung"},
	}

	got := ByTitle(events, MetricCost)

	want := []Entry{
		{Title: "Walzenbruch", Category: "Problem", Value: 300},
		{Title: "Reinigung", Category: "Reinigen", Value: 50},
		{Title: "Ohne Kosten", Category: "Bemerkung", Value: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("entries = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestByTitleScrapBGrade(t *testing.T) {
	events := []model.Event{
		{Title: "A", Category: "Problem", ScrapArea: 2.5, BGradeArea: 1.5},
		{Title: "B", Category: "Problem", ScrapArea: 10},
	}

	got := ByTitle(events, MetricScrapBGrade)

	if got[0].Title != "B" || got[0].Value != 10 {
		t.Errorf("top entry = %+v", got[0])
	}
	if got[1].Title != "A" || got[1].Value != 4 {
		t.Errorf("second entry = %+v", got[1])
	}
}

func TestByTitleTieBreaksAscending(t *testing.T) {
	c := 5.0
	events := []model.Event{
		{Title: "Zebra", Category: "Problem", Cost: &c},
		{Title: "Apfel", Category: "Problem", Cost: &c},
		{Title: "Mitte", Category: "Problem", Cost: &c},
	}

	got := ByTitle(events, MetricCost)

	want := []string{"Apfel", "Mitte", "Zebra"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("entry %d = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestMetricAxisLabel(t *testing.T) {
	if MetricCost.AxisLabel() != "Cost (€)" {
		t.Errorf("cost label = %q", MetricCost.AxisLabel())
	}
	if MetricScrapBGrade.AxisLabel() != "Scrap + B-Grade (m²)" {
		t.Errorf("scrap label = %q", MetricScrapBGrade.AxisLabel())
	}
}
