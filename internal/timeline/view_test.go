package timeline

import (
	"testing"
	"time"
)

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{"day", ViewDay, false},
		{"", ViewDay, false},
		{"WEEK", ViewWeek, false},
		{" month ", ViewMonth, false},
		{"quarter", ViewDay, true},
	}
	for _, tt := range tests {
		got, err := ParseView(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseView(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseView(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveWindowDay(t *testing.T) {
	ref := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	w := ResolveWindow(ViewDay, ref)

	wantStart := time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
	if !w.End.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("End = %v, want %v", w.End, wantStart.Add(24*time.Hour))
	}
}

func TestResolveWindowWeek(t *testing.T) {
	// 2025-03-12 is a Wednesday; the week starts Monday 2025-03-10.
	wantStart := time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)

	for _, day := range []int{10, 12, 16} {
		ref := time.Date(2025, 3, day, 9, 0, 0, 0, time.UTC)
		w := ResolveWindow(ViewWeek, ref)
		if !w.Start.Equal(wantStart) {
			t.Errorf("ref %d: Start = %v, want %v", day, w.Start, wantStart)
		}
		if !w.End.Equal(wantStart.Add(7 * 24 * time.Hour)) {
			t.Errorf("ref %d: End = %v", day, w.End)
		}
	}
}

func TestResolveWindowMonth(t *testing.T) {
	ref := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	w := ResolveWindow(ViewMonth, ref)

	wantStart := time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 4, 1, 5, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("window = %v - %v, want %v - %v", w.Start, w.End, wantStart, wantEnd)
	}
}

func TestWindowContainsShiftBoundary(t *testing.T) {
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	w := ResolveWindow(ViewDay, ref)

	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2025, 3, 10, 4, 59, 0, 0, time.UTC), false},
		{time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 11, 4, 59, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 11, 5, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.at); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestRangeLabel(t *testing.T) {
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		v    View
		want string
	}{
		{ViewDay, "10.03.2025"},
		{ViewWeek, "CW 11"},
		{ViewMonth, "03.2025"},
	}
	for _, tt := range tests {
		w := ResolveWindow(tt.v, ref)
		if got := RangeLabel(tt.v, ref, w); got != tt.want {
			t.Errorf("RangeLabel(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
