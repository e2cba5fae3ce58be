// Package render turns a timeline.Layout into an SVG document. It owns
// all pixel-space decisions; the layout core stays in time/lane
// coordinates.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lossdash/internal/timeline"
)

const (
	defaultWidth = 1400
	leftMargin   = 180
	rightMargin  = 40
	topMargin    = 70
	bottomMargin = 70
	rowHeight    = 60
	blockPad     = 8
	fontFamily   = "Arial, sans-serif"
	labelFont    = 13
	tickFont     = 12
	titleFont    = 22
	rowFont      = 14
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// SVG writes the layout as a standalone SVG document.
func SVG(w io.Writer, l timeline.Layout) error {
	r := renderer{layout: l, width: defaultWidth}
	r.height = topMargin + rowHeight*max(len(l.Rows), 1) + bottomMargin

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="#fafafa"/>
`, r.width, r.height))

	r.drawBands(&svg)
	r.drawGrid(&svg)
	r.drawTicks(&svg)
	r.drawBlocks(&svg)
	r.drawAnnotations(&svg)
	r.drawTitle(&svg)

	svg.WriteString("</svg>\n")
	_, err := io.WriteString(w, svg.String())
	return err
}

type renderer struct {
	layout timeline.Layout
	width  int
	height int
}

// x maps an instant onto the horizontal pixel axis.
func (r *renderer) x(t time.Time) float64 {
	w := r.layout.Window
	span := w.End.Sub(w.Start).Seconds()
	frac := t.Sub(w.Start).Seconds() / span
	return leftMargin + frac*float64(r.width-leftMargin-rightMargin)
}

// rowTop returns the top pixel of a lane row, or -1 when unknown.
func (r *renderer) rowTop(laneRow string) float64 {
	for i, row := range r.layout.Rows {
		if row == laneRow {
			return topMargin + float64(i*rowHeight)
		}
	}
	return -1
}

func (r *renderer) drawBands(svg *strings.Builder) {
	bottom := r.height - bottomMargin
	for _, b := range r.layout.Axis.Bands {
		x0, x1 := r.x(b.Start), r.x(b.End)
		svg.WriteString(fmt.Sprintf(
			`<rect x="%.1f" y="%d" width="%.1f" height="%d" fill="%s" fill-opacity="%.2f"/>`+"\n",
			x0, topMargin, x1-x0, bottom-topMargin, b.Color, b.Opacity))
	}
}

func (r *renderer) drawGrid(svg *strings.Builder) {
	right := r.width - rightMargin
	for i, row := range r.layout.Rows {
		y := topMargin + i*rowHeight
		svg.WriteString(fmt.Sprintf(
			`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#cccccc" stroke-width="2"/>`+"\n",
			leftMargin, y, right, y))
		svg.WriteString(fmt.Sprintf(
			`<text x="%d" y="%d" text-anchor="end" font-family="%s" font-size="%d" fill="black">%s</text>`+"\n",
			leftMargin-10, y+rowHeight/2+rowFont/2, fontFamily, rowFont, xmlEscaper.Replace(row)))
	}
	bottom := topMargin + rowHeight*max(len(r.layout.Rows), 1)
	svg.WriteString(fmt.Sprintf(
		`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#cccccc" stroke-width="2"/>`+"\n",
		leftMargin, bottom, right, bottom))
}

func (r *renderer) drawTicks(svg *strings.Builder) {
	bottom := r.height - bottomMargin
	for _, t := range r.layout.Axis.Ticks {
		x := r.x(t.At)
		svg.WriteString(fmt.Sprintf(
			`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#e0e0e0" stroke-width="1"/>`+"\n",
			x, topMargin, x, bottom))
		svg.WriteString(fmt.Sprintf(
			`<text x="%.1f" y="%d" text-anchor="middle" font-family="%s" font-size="%d" fill="black">%s</text>`+"\n",
			x, bottom+tickFont+6, fontFamily, tickFont, xmlEscaper.Replace(t.Label)))
	}
}

func (r *renderer) drawBlocks(svg *strings.Builder) {
	for _, p := range r.layout.Placements {
		top := r.rowTop(p.LaneRow)
		if top < 0 {
			continue
		}
		x0, x1 := r.x(p.Start), r.x(p.End)
		svg.WriteString(fmt.Sprintf(
			`<rect x="%.1f" y="%.1f" width="%.1f" height="%d" rx="3" fill="%s" stroke="#666666" stroke-width="1"/>`+"\n",
			x0, top+blockPad, x1-x0, rowHeight-2*blockPad, p.Color))
	}
}

func (r *renderer) drawAnnotations(svg *strings.Builder) {
	for _, p := range r.layout.Placements {
		top := r.rowTop(p.LaneRow)
		if top < 0 {
			continue
		}
		mid := top + rowHeight/2

		var anchor string
		x := r.x(p.AnchorX)
		y := mid
		switch p.Kind {
		case timeline.PlaceInside:
			anchor = "middle"
		case timeline.PlaceRight:
			anchor = "start"
		case timeline.PlaceLeft:
			anchor = "start"
		case timeline.PlaceAbove, timeline.PlaceBelow:
			anchor = "middle"
			y = mid + float64(p.OffsetYPx)
		}

		// Connector from the label back to the block edge.
		if p.Kind != timeline.PlaceInside {
			cx := r.x(p.ConnectorX)
			svg.WriteString(fmt.Sprintf(
				`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#888888" stroke-width="1"/>`+"\n",
				x, y, cx, mid))
		}

		lines := p.Label
		startY := y - float64((len(lines)-1)*labelFont)/2
		svg.WriteString(fmt.Sprintf(
			`<text x="%.1f" y="%.1f" text-anchor="%s" font-family="%s" font-size="%d" fill="black">`,
			x, startY, anchor, fontFamily, labelFont))
		for i, line := range lines {
			weight := ""
			dy := labelFont + 2
			if i == 0 {
				weight = ` font-weight="bold"`
				dy = 0
			}
			svg.WriteString(fmt.Sprintf(`<tspan x="%.1f" dy="%d"%s>%s</tspan>`,
				x, dy, weight, xmlEscaper.Replace(line)))
		}
		svg.WriteString("</text>\n")
	}
}

func (r *renderer) drawTitle(svg *strings.Builder) {
	svg.WriteString(fmt.Sprintf(
		`<text x="%d" y="%d" font-family="%s" font-size="%d" fill="black">%s</text>`+"\n",
		leftMargin, titleFont+16, fontFamily, titleFont, xmlEscaper.Replace(r.layout.Title)))
}
