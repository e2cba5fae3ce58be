// Package palette resolves loss categories to display colors. Known
// categories carry fixed colors; unseen categories get a deterministic
// color from a fallback cycle. Assignments live for the session only.
package palette

import "sort"

// CategoryOptions is the built-in category set offered by the editor.
// Unknown categories are still accepted and colored from the cycle.
var CategoryOptions = []string{
	"Anfahren",
	"Reinigen",
	"Process Breakdown",
	"Technical Break Down",
	"Problem",
	"Lösung",
	"Bemerkung",
	"Verbesserungsvorschlag",
	"Versuchsablauf",
}

// categoryColors are the fixed colors for the built-in categories.
var categoryColors = map[string]string{
	"Anfahren":               "#B0B0B0", // grey for neutral
	"Reinigen":               "#3498DB", // blue for cleaning
	"Process Breakdown":      "#F39C12", // orange for process problem
	"Technical Break Down":   "#C0392B", // red for technical problem
	"Problem":                "#C0392B",
	"Bemerkung":              "#8E44AD",
	"Verbesserungsvorschlag": "#2ECC71",
	"Lösung":                 "#27AE60",
	"Versuchsablauf":         "#16A085",
}

// fallbackCycle colors unseen categories (matplotlib tab10).
var fallbackCycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// DefaultColor is returned for categories that were never assigned.
const DefaultColor = "#888888"

// Resolver maps category labels to hex colors.
type Resolver struct {
	known map[string]string
}

// NewResolver builds a Resolver from the built-in colors plus optional
// extra overrides (e.g. from config).
func NewResolver(extra map[string]string) *Resolver {
	known := make(map[string]string, len(categoryColors)+len(extra))
	for k, v := range categoryColors {
		known[k] = v
	}
	for k, v := range extra {
		if k != "" && v != "" {
			known[k] = v
		}
	}
	return &Resolver{known: known}
}

// Color returns the color for a category, or DefaultColor when unmapped.
func (r *Resolver) Color(category string) string {
	if c, ok := r.known[category]; ok {
		return c
	}
	return DefaultColor
}

// Known reports whether the category already has a color.
func (r *Resolver) Known(category string) bool {
	_, ok := r.known[category]
	return ok
}

// AssignNew assigns cycle colors to every listed category that has none
// yet. Input order decides the cycle position, duplicates are ignored, so
// the same category list always yields the same colors within a session.
func (r *Resolver) AssignNew(categories []string) {
	n := 0
	seen := make(map[string]bool)
	for _, cat := range categories {
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		if _, ok := r.known[cat]; ok {
			continue
		}
		r.known[cat] = fallbackCycle[n%len(fallbackCycle)]
		n++
	}
}

// Snapshot returns a copy of the current category → color map,
// sorted-key iteration friendly for stable JSON output.
func (r *Resolver) Snapshot() map[string]string {
	out := make(map[string]string, len(r.known))
	for k, v := range r.known {
		out[k] = v
	}
	return out
}

// Categories returns all known category names, sorted.
func (r *Resolver) Categories() []string {
	out := make([]string, 0, len(r.known))
	for k := range r.known {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
