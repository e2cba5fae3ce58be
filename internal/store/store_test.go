package store

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"lossdash/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.xlsx")
	return New(path, 2025, time.UTC)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestSaveAndReload(t *testing.T) {
	s := newTestStore(t)

	cost := 150.0
	ev := model.Event{
		Date:        "10.03",
		StartTime:   "09:00",
		EndTime:     "10:30",
		Category:    "Problem",
		Title:       "Walzenbruch",
		Description: "Walze getauscht",
		ScrapArea:   2.5,
		BGradeArea:  1.25,
		Reserved:    "yes",
		Cost:        &cost,
	}
	if err := s.Append(ev); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reloaded := New(s.path, 2025, time.UTC)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	events := reloaded.Events()
	if len(events) != 1 {
		t.Fatalf("reloaded %d rows, want 1", len(events))
	}

	got := events[0]
	if got.Date != "10.03" || got.StartTime != "09:00" || got.EndTime != "10:30" {
		t.Errorf("date/time fields = %q %q %q", got.Date, got.StartTime, got.EndTime)
	}
	if got.Category != "Problem" || got.Title != "Walzenbruch" || got.Description != "Walze getauscht" {
		t.Errorf("text fields = %q %q %q", got.Category, got.Title, got.Description)
	}
	if got.ScrapArea != 2.5 || got.BGradeArea != 1.25 || got.Reserved != "yes" {
		t.Errorf("metric fields = %v %v %q", got.ScrapArea, got.BGradeArea, got.Reserved)
	}
	if got.Cost == nil || *got.Cost != 150 {
		t.Errorf("Cost = %v, want 150", got.Cost)
	}
	if got.DurationMinutes != 90 {
		t.Errorf("DurationMinutes = %d, want 90 (instants not derived on load)", got.DurationMinutes)
	}
}

func TestSaveKeepsBackup(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(model.Event{Date: "10.03", StartTime: "09:00", EndTime: "10:00", Title: "a"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Append(model.Event{Date: "10.03", StartTime: "11:00", EndTime: "12:00", Title: "b"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if _, err := os.Stat(s.path + backupSuffix); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	// The backup is the state before the most recent save.
	backup := New(s.path+backupSuffix, 2025, time.UTC)
	if err := backup.Load(); err != nil {
		t.Fatalf("load backup: %v", err)
	}
	if backup.Len() != 1 {
		t.Errorf("backup rows = %d, want 1", backup.Len())
	}
}

func TestReplaceAndDelete(t *testing.T) {
	s := newTestStore(t)

	rows := []model.Event{
		{Date: "10.03", StartTime: "09:00", EndTime: "10:00", Title: "a"},
		{Date: "10.03", StartTime: "11:00", EndTime: "12:00", Title: "b"},
	}
	if err := s.Replace(rows); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d after Replace", s.Len())
	}
	// Replace derives instants for every row.
	if ev := s.Events()[0]; !ev.Valid() {
		t.Error("Replace did not derive instants")
	}

	if err := s.Delete(0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if events := s.Events(); len(events) != 1 || events[0].Title != "b" {
		t.Errorf("after Delete: %+v", events)
	}

	if err := s.Delete(5); err == nil {
		t.Error("Delete out of range should fail")
	}
}

func TestLoadFromBlankWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := BlankWorkbook(&buf); err != nil {
		t.Fatalf("BlankWorkbook: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("blank workbook is empty")
	}

	s := newTestStore(t)
	if err := s.LoadFrom(&buf); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("blank workbook yielded %d rows", s.Len())
	}
}

func TestLoadFromReplacesTable(t *testing.T) {
	donor := newTestStore(t)
	if err := donor.Append(model.Event{Date: "12.03", StartTime: "06:00", EndTime: "07:00", Title: "upload"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	var buf bytes.Buffer
	if err := donor.WriteWorkbook(&buf); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	s := newTestStore(t)
	if err := s.LoadFrom(&buf); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	events := s.Events()
	if len(events) != 1 || events[0].Title != "upload" {
		t.Fatalf("uploaded table = %+v", events)
	}
	if !events[0].Valid() {
		t.Error("uploaded rows should have derived instants")
	}
}

func TestRowToEvent(t *testing.T) {
	row := []string{
		"10.03.2025", "09:00:00", "10:30", "Problem", "Titel", "Text",
		"2.5", "-1", "yes", "150",
	}
	ev := rowToEvent(row)

	// Over-long date/time cells are clamped to DD.MM and HH:MM.
	if ev.Date != "10.03" || ev.StartTime != "09:00" || ev.EndTime != "10:30" {
		t.Errorf("clamped fields = %q %q %q", ev.Date, ev.StartTime, ev.EndTime)
	}
	if ev.ScrapArea != 2.5 {
		t.Errorf("ScrapArea = %v", ev.ScrapArea)
	}
	if ev.BGradeArea != 0 {
		t.Errorf("negative area should coerce to 0, got %v", ev.BGradeArea)
	}
	if ev.Cost == nil || *ev.Cost != 150 {
		t.Errorf("Cost = %v", ev.Cost)
	}

	// Short rows read as empty cells.
	short := rowToEvent([]string{"10.03"})
	if short.Date != "10.03" || short.Category != "" || short.Cost != nil {
		t.Errorf("short row = %+v", short)
	}
}

func TestClampLen(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"10.03.2025", 5, "10.03"},
		{"10.03", 5, "10.03"},
		{"9:00", 5, "9:00"},
		// Clamping counts characters, not bytes.
		{"méièrt", 5, "méièr"},
		{"日本語の時刻", 5, "日本語の時"},
	}
	for _, tt := range tests {
		got := clampLen(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("clampLen(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("clampLen(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	s := newTestStore(t)
	cost := 99.5
	if err := s.Append(model.Event{
		Date: "10.03", StartTime: "09:00", EndTime: "10:00",
		Category: "Reinigen", Title: "Spülung", ScrapArea: 1.5, Cost: &cost,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var buf bytes.Buffer
	if err := s.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(Columns, ",") {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[3] != "Reinigen" || row[6] != "1.5" || row[9] != "99.5" {
		t.Errorf("row = %v", row)
	}
}
