// Package store persists the loss event log to an Excel workbook. The
// workbook is the single source of truth; the in-memory table is reloaded
// wholesale and saved wholesale, there is no row identity beyond position.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	appLog "lossdash/internal/log"
	"lossdash/internal/model"
)

const (
	backupSuffix = ".backup"
	tmpSuffix    = ".tmp.xlsx"
)

// Columns is the workbook header row, in order.
var Columns = []string{
	"Date", "StartTime", "EndTime", "Category", "Title", "Description",
	"Scrap (m²)", "B-Grade (m²)", "Reserved", "Cost (€)",
}

// Store holds the event table and its workbook path. All access goes
// through the RWMutex; the HTTP layer serializes edits on top of it.
type Store struct {
	path string
	year int
	loc  *time.Location

	mu     sync.RWMutex
	events []model.Event
}

// New creates a Store for the given workbook path. Events dates use the
// fixed year and location for instant derivation.
func New(path string, year int, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{path: path, year: year, loc: loc}
}

// Load reads the workbook from disk. A missing file yields an empty table,
// not an error (first run).
func (s *Store) Load() error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("no data file yet, starting empty", "path", s.path)
			s.mu.Lock()
			s.events = nil
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			appLog.Error("failed to close workbook", cerr, "path", s.path)
		}
	}()

	events, err := s.readEvents(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()

	appLog.Info("loaded event log", "path", s.path, "rows", len(events))
	return nil
}

// LoadFrom replaces the table with the workbook read from r (file upload).
// The previous table is kept untouched on error.
func (s *Store) LoadFrom(r io.Reader) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("open uploaded workbook: %w", err)
	}
	defer f.Close()

	events, err := s.readEvents(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

func (s *Store) readEvents(f *excelize.File) ([]model.Event, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Row 0 is the header; everything after is event data.
	events := make([]model.Event, 0, len(rows)-1)
	for _, row := range rows[1:] {
		ev := rowToEvent(row)
		ev.Derive(s.year, s.loc)
		events = append(events, ev)
	}
	return events, nil
}

// rowToEvent converts one sheet row into an Event, coercing numerics and
// clamping date/time cells to their expected widths. Trailing empty cells
// are absent from rows returned by excelize.
func rowToEvent(row []string) model.Event {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	ev := model.Event{
		Date:        clampLen(cell(0), 5),
		StartTime:   clampLen(cell(1), 5),
		EndTime:     clampLen(cell(2), 5),
		Category:    cell(3),
		Title:       cell(4),
		Description: cell(5),
		Reserved:    cell(8),
	}
	if v, ok := model.ParseNumber(cell(6)); ok && v >= 0 {
		ev.ScrapArea = v
	}
	if v, ok := model.ParseNumber(cell(7)); ok && v >= 0 {
		ev.BGradeArea = v
	}
	if v, ok := model.ParseNumber(cell(9)); ok {
		ev.Cost = &v
	}
	return ev
}

// clampLen truncates to n characters, never mid-rune.
func clampLen(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// Events returns a copy of the current table. Callers own the copy; the
// layout core never sees the store's backing slice.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the current row count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Replace swaps in a new table, re-derives instants and saves to disk.
func (s *Store) Replace(events []model.Event) error {
	model.DeriveAll(events, s.year, s.loc)

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()

	return s.Save()
}

// Append adds one row, derives it and saves.
func (s *Store) Append(ev model.Event) error {
	ev.Derive(s.year, s.loc)

	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()

	return s.Save()
}

// Delete removes the row at index and saves.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.events) {
		s.mu.Unlock()
		return fmt.Errorf("row index %d out of range", index)
	}
	s.events = append(s.events[:index], s.events[index+1:]...)
	s.mu.Unlock()

	return s.Save()
}

// Save writes the table to the workbook path. The previous file is kept
// as a .backup; the new file is written to a temp path and renamed in.
func (s *Store) Save() error {
	s.mu.RLock()
	events := make([]model.Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	f, err := buildWorkbook(events)
	if err != nil {
		return err
	}
	defer f.Close()

	tmpFile := s.path + tmpSuffix
	if err := f.SaveAs(tmpFile); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.path+backupSuffix); err != nil {
			appLog.Warn("failed to create backup", "path", s.path, "err", err)
		}
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		return fmt.Errorf("commit workbook: %w", err)
	}

	appLog.Info("saved event log", "path", s.path, "rows", len(events))
	return nil
}

// WriteWorkbook streams the current table as an .xlsx document.
func (s *Store) WriteWorkbook(w io.Writer) error {
	f, err := buildWorkbook(s.Events())
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// BlankWorkbook streams an empty workbook carrying only the header row.
func BlankWorkbook(w io.Writer) error {
	f, err := buildWorkbook(nil)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func buildWorkbook(events []model.Event) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, ev := range events {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			ev.Date, ev.StartTime, ev.EndTime, ev.Category, ev.Title,
			ev.Description, ev.ScrapArea, ev.BGradeArea, ev.Reserved,
		}
		if ev.Cost != nil {
			row = append(row, *ev.Cost)
		} else {
			row = append(row, "")
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

// WriteCSV streams the current table as CSV with the workbook columns.
func (s *Store) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, ev := range s.Events() {
		cost := ""
		if ev.Cost != nil {
			cost = strconv.FormatFloat(*ev.Cost, 'f', -1, 64)
		}
		rec := []string{
			ev.Date, ev.StartTime, ev.EndTime, ev.Category, ev.Title,
			ev.Description,
			strconv.FormatFloat(ev.ScrapArea, 'f', -1, 64),
			strconv.FormatFloat(ev.BGradeArea, 'f', -1, 64),
			ev.Reserved, cost,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
