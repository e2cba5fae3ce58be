package export

import (
	"strings"
	"testing"
	"time"

	"lossdash/internal/model"
)

func TestICS(t *testing.T) {
	valid := model.Event{
		Date:        "10.03",
		StartTime:   "09:00",
		EndTime:     "10:30",
		Category:    "Problem",
		Title:       "Walzenbruch",
		Description: "Walze getauscht",
	}
	valid.Derive(2025, time.UTC)

	broken := model.Event{Date: "bad", StartTime: "09:00", EndTime: "10:00", Title: "skip me"}
	broken.Derive(2025, time.UTC)

	out := ICS([]model.Event{valid, broken})

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:row0-10.03-09:00@lossdash",
		"SUMMARY:[Problem] Walzenbruch",
		"DTSTART:20250310T090000Z",
		"DTEND:20250310T103000Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	if strings.Contains(out, "skip me") {
		t.Error("events without usable instants must be skipped")
	}
	if strings.Count(out, "BEGIN:VEVENT") != 1 {
		t.Errorf("event count = %d, want 1", strings.Count(out, "BEGIN:VEVENT"))
	}
}

func TestICSEmpty(t *testing.T) {
	out := ICS(nil)
	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Error("empty feed should still be a calendar")
	}
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Error("empty feed should carry no events")
	}
}
