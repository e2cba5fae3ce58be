package timeline

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// PlacementKind names the chosen annotation position for a block.
type PlacementKind string

const (
	PlaceInside PlacementKind = "inside"
	PlaceRight  PlacementKind = "right"
	PlaceLeft   PlacementKind = "left"
	PlaceAbove  PlacementKind = "above"
	PlaceBelow  PlacementKind = "below"
)

const (
	labelFontSize = 18
	// pxPerHour converts estimated label widths into time spans for
	// horizontal collision reasoning.
	pxPerHour = 100.0
	// insideMinMinutes is the minimum block span for an Inside placement.
	insideMinMinutes = 120
	// edgeMarginMinutes of window must stay visible beyond a Right/Left label.
	edgeMarginMinutes = 30
	// connectorGap separates a Right/Left label from its block edge.
	connectorGap = 10 * time.Minute
	// labelOffsetPx is the fixed vertical offset for Above/Below labels.
	labelOffsetPx = 80
)

// labelRect is an occupied horizontal span within a lane row. Above and
// Below placements register a zero-width rect at the block center.
type labelRect struct {
	start, end time.Time
	row        string
}

// placedSet is the registry of rectangles occupied so far during the
// placement pass. It is threaded through explicitly; later events may be
// blocked by earlier labels, never the reverse.
type placedSet struct {
	rects []labelRect
}

func (p *placedSet) add(start, end time.Time, row string) {
	p.rects = append(p.rects, labelRect{start: start, end: end, row: row})
}

// overlaps reports whether [start, end) intersects any placed rect in the
// same lane row.
func (p *placedSet) overlaps(start, end time.Time, row string) bool {
	for _, r := range p.rects {
		if r.row == row && start.Before(r.end) && end.After(r.start) {
			return true
		}
	}
	return false
}

// centerNear reports whether any placed rect in the row starts within
// width of the given center. Used by the Above/Below admission test.
func (p *placedSet) centerNear(center time.Time, width time.Duration, row string) bool {
	for _, r := range p.rects {
		if r.row != row {
			continue
		}
		d := center.Sub(r.start)
		if d < 0 {
			d = -d
		}
		if d < width {
			return true
		}
	}
	return false
}

// estimateWidthPx estimates the rendered annotation width from its
// longest line: len × fontSize × 0.5 + 10.
func estimateWidthPx(lines []string) int {
	longest := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > longest {
			longest = n
		}
	}
	return longest*labelFontSize/2 + 10
}

func widthDuration(px int) time.Duration {
	return time.Duration(float64(px) / pxPerHour * float64(time.Hour))
}

// blockLines builds the annotation text for an event block. The first
// line is the title; the metric lines are included when descriptions are
// enabled.
func blockLines(le laneEvent, showDescription bool) []string {
	lines := []string{le.ev.Title}
	if showDescription {
		lines = append(lines,
			fmt.Sprintf("Duration: %d min", le.ev.DurationMinutes),
			fmt.Sprintf("Scrap + B-Grade: %d m²", int(le.ev.ScrapPlusBGrade())),
			fmt.Sprintf("Total Costs: %s €", formatNumber(le.ev.CostValue())),
		)
	}
	return lines
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// placeLabels chooses one annotation position per event block in a single
// forward pass over the sorted events. Candidates are tried strictly in
// the order Inside, Right, Left, Above, Below; the first admissible one
// wins and Below never fails. Every event receives exactly one placement.
func placeLabels(events []laneEvent, w Window, showDescription bool, color func(string) string) []Placement {
	// All block spans are obstacles for Right/Left labels, regardless of
	// placement order.
	blocks := make([]labelRect, len(events))
	for i, le := range events {
		blocks[i] = labelRect{start: le.ev.Start, end: le.ev.End, row: le.laneRow}
	}
	blockOverlap := func(start, end time.Time, row string) bool {
		for _, b := range blocks {
			if b.row == row && start.Before(b.end) && end.After(b.start) {
				return true
			}
		}
		return false
	}

	placed := &placedSet{}
	out := make([]Placement, 0, len(events))

	for _, le := range events {
		lines := blockLines(le, showDescription)
		widthPx := estimateWidthPx(lines)
		widthTd := widthDuration(widthPx)

		span := le.ev.End.Sub(le.ev.Start)
		center := le.ev.Start.Add(span / 2)
		row := le.laneRow

		pl := Placement{
			Row:      le.row,
			Category: le.ev.Category,
			Lane:     le.lane,
			LaneRow:  row,
			Start:    le.ev.Start,
			End:      le.ev.End,
			Color:    color(le.ev.Category),
			Label:    lines,
			WidthPx:  widthPx,
		}

		// 1. Inside: long enough block, no earlier label on the span.
		if span.Minutes() >= insideMinMinutes && !placed.overlaps(le.ev.Start, le.ev.End, row) {
			pl.Kind = PlaceInside
			pl.AnchorX = center
			placed.add(le.ev.Start, le.ev.End, row)
			out = append(out, pl)
			continue
		}

		// 2. Right: label box after the block, clear of the window edge
		// and of every block/label in the row.
		rx0 := le.ev.End.Add(connectorGap)
		rx1 := rx0.Add(widthTd)
		rightSpace := rx1.Before(w.End) && w.End.Sub(rx1).Minutes() >= edgeMarginMinutes
		if rightSpace && !blockOverlap(rx0, rx1, row) && !placed.overlaps(rx0, rx1, row) {
			pl.Kind = PlaceRight
			pl.AnchorX = rx0
			pl.ConnectorX = le.ev.End
			placed.add(rx0, rx1, row)
			out = append(out, pl)
			continue
		}

		// 3. Left: mirror of Right against the window's left edge.
		lx1 := le.ev.Start.Add(-connectorGap)
		lx0 := lx1.Add(-widthTd)
		leftSpace := lx0.After(w.Start) && lx0.Sub(w.Start).Minutes() >= edgeMarginMinutes
		if leftSpace && !blockOverlap(lx0, lx1, row) && !placed.overlaps(lx0, lx1, row) {
			pl.Kind = PlaceLeft
			pl.AnchorX = lx0
			pl.ConnectorX = le.ev.Start
			placed.add(lx0, lx1, row)
			out = append(out, pl)
			continue
		}

		// 4. Above: fixed pixel offset, free unless another label's start
		// sits within the estimated width of this block's center.
		if !placed.centerNear(center, widthTd, row) {
			pl.Kind = PlaceAbove
			pl.AnchorX = center
			pl.ConnectorX = center
			pl.OffsetYPx = -labelOffsetPx
			placed.add(center, center, row)
			out = append(out, pl)
			continue
		}

		// 5. Below: unconditional fallback.
		pl.Kind = PlaceBelow
		pl.AnchorX = center
		pl.ConnectorX = center
		pl.OffsetYPx = labelOffsetPx
		placed.add(center, center, row)
		out = append(out, pl)
	}

	return out
}
