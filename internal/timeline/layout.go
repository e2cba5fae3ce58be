package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"lossdash/internal/model"
)

// Placement is the final layout decision for one event block: its lane
// row, color and the chosen annotation position.
type Placement struct {
	Row      int       `json:"row"`      // original row index in the event table
	Category string    `json:"category"`
	Lane     int       `json:"lane"`     // lane index within the category
	LaneRow  string    `json:"lane_row"` // display row label, e.g. "Reinigen 2"
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Color    string    `json:"color"`

	Kind PlacementKind `json:"kind"`
	// AnchorX is the annotation's horizontal anchor instant. For Inside,
	// Above and Below this is the block center; for Right/Left it is the
	// near edge of the label box.
	AnchorX time.Time `json:"anchor_x"`
	// ConnectorX is the block edge a connector arrow points at. Zero for
	// Inside placements (no connector).
	ConnectorX time.Time `json:"connector_x,omitempty"`
	// OffsetYPx is the fixed vertical label offset in pixels: negative for
	// Above, positive for Below, zero otherwise.
	OffsetYPx int `json:"offset_y_px,omitempty"`

	Label   []string `json:"label"`    // annotation text lines, first line is the title
	WidthPx int      `json:"width_px"` // estimated annotation width
}

// Tick is one labeled axis position.
type Tick struct {
	At    time.Time `json:"at"`
	Label string    `json:"label"`
}

// Band is a shaded background region (shift band or weekend shading).
type Band struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Color   string    `json:"color"`
	Opacity float64   `json:"opacity"`
}

// Axis carries tick positions and background bands for the window.
type Axis struct {
	Ticks []Tick `json:"ticks"`
	Bands []Band `json:"bands"`
}

// Layout is the complete, renderer-agnostic result of one layout pass.
type Layout struct {
	View       View           `json:"-"`
	ViewName   string         `json:"view"`
	Window     Window         `json:"window"`
	Title      string         `json:"title"`
	Rows       []string       `json:"rows"`        // ordered lane row labels, top to bottom
	LaneCounts map[string]int `json:"lane_counts"` // lanes per category
	Placements []Placement    `json:"placements"`
	Axis       Axis           `json:"axis"`
	Excluded   int            `json:"excluded"`    // events dropped for invalid instants
	HeightHint int            `json:"height_hint"` // suggested render height in px
}

// Options tune a layout pass.
type Options struct {
	// ShowDescription includes duration/scrap/cost lines in annotations.
	ShowDescription bool
	// Color resolves a category to a hex color. Nil means a neutral gray.
	Color func(category string) string
}

// laneEvent pairs a filtered event with its table row and assigned lane.
type laneEvent struct {
	ev      model.Event
	row     int
	lane    int
	laneRow string
}

// Build runs the full layout pass: filter into the window, assign lanes,
// place labels and build the axis. The input slice is treated as
// read-only; derived state lives in the returned Layout. Identical inputs
// produce identical layouts.
func Build(events []model.Event, v View, ref time.Time, opts Options) Layout {
	w := ResolveWindow(v, ref)

	color := opts.Color
	if color == nil {
		color = func(string) string { return "#888888" }
	}

	// Exclude events without usable instants, then window on Start.
	excluded := 0
	kept := make([]laneEvent, 0, len(events))
	for i, ev := range events {
		if !ev.Valid() {
			excluded++
			continue
		}
		if !w.Contains(ev.Start) {
			continue
		}
		kept = append(kept, laneEvent{ev: ev, row: i})
	}

	// Deterministic layout order: category, start, end, original row.
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.ev.Category != b.ev.Category {
			return a.ev.Category < b.ev.Category
		}
		if !a.ev.Start.Equal(b.ev.Start) {
			return a.ev.Start.Before(b.ev.Start)
		}
		return a.ev.End.Before(b.ev.End)
	})

	laneCounts := assignLanes(kept, v == ViewMonth)

	// Row labels: bare category when it needs a single lane only.
	rows := make([]string, 0)
	seenRow := make(map[string]bool)
	for i := range kept {
		le := &kept[i]
		if laneCounts[le.ev.Category] > 1 {
			le.laneRow = le.ev.Category + " " + strconv.Itoa(le.lane+1)
		} else {
			le.laneRow = le.ev.Category
		}
		if !seenRow[le.laneRow] {
			seenRow[le.laneRow] = true
			rows = append(rows, le.laneRow)
		}
	}

	placements := placeLabels(kept, w, opts.ShowDescription, color)

	return Layout{
		View:       v,
		ViewName:   v.String(),
		Window:     w,
		Title:      layoutTitle(v, ref, w),
		Rows:       rows,
		LaneCounts: laneCounts,
		Placements: placements,
		Axis:       buildAxis(v, w, kept),
		Excluded:   excluded,
		HeightHint: 600 + 60*len(rows),
	}
}

func layoutTitle(v View, ref time.Time, w Window) string {
	return fmt.Sprintf("Timeline View: WCM Losses %s", RangeLabel(v, ref, w))
}
