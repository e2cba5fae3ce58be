package timeline

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// Shift band and weekend shading colors, fixed across views.
var shiftColors = [3]string{"#C1E5F5", "#F2CFEE", "#D9F2D0"}

const (
	shiftBandOpacity   = 0.18
	weekendOpacity     = 0.45
	saturdayShade      = "#888888"
	sundayShade        = "#444444"
	shiftLength        = 8 * time.Hour
	tickTimeFormat     = "15:04"
	tickDateTimeFormat = "02.01 15:04"
	tickDateFormat     = "02.01"
)

// buildAxis produces tick positions/labels and background bands for the
// window. Day: hourly ticks and three shift bands. Week: one tick per day
// boundary, weekend shading and shift bands for all seven days. Month:
// window edges plus one tick per distinct event day, no bands.
func buildAxis(v View, w Window, events []laneEvent) Axis {
	switch v {
	case ViewWeek:
		return weekAxis(w)
	case ViewMonth:
		return monthAxis(w, events)
	default:
		return dayAxis(w)
	}
}

func dayAxis(w Window) Axis {
	var ax Axis

	for _, t := range enumerate(rrule.HOURLY, w.Start, w.End) {
		label := t.Format(tickTimeFormat)
		// Date label at the shift-day boundary and at midnight.
		if t.Hour() == 5 || (t.Hour() == 0 && !t.Equal(w.Start)) {
			label = t.Format(tickDateTimeFormat)
		}
		ax.Ticks = append(ax.Ticks, Tick{At: t, Label: label})
	}

	ax.Bands = append(ax.Bands, shiftBands(w.Start)...)
	return ax
}

func weekAxis(w Window) Axis {
	var ax Axis

	days := make([]time.Time, 0, 7)
	for _, t := range enumerate(rrule.DAILY, w.Start, w.End) {
		if !t.Before(w.End) {
			continue
		}
		days = append(days, t)
		ax.Ticks = append(ax.Ticks, Tick{At: t, Label: t.Format(tickDateTimeFormat)})
	}

	// Weekend shading: the last two days, Sunday darker than Saturday.
	if len(days) == 7 {
		ax.Bands = append(ax.Bands,
			Band{Start: days[5], End: days[6], Color: saturdayShade, Opacity: weekendOpacity},
			Band{Start: days[6], End: w.End, Color: sundayShade, Opacity: weekendOpacity},
		)
	}

	for _, d := range days {
		ax.Bands = append(ax.Bands, shiftBands(d)...)
	}
	return ax
}

func monthAxis(w Window, events []laneEvent) Axis {
	var ax Axis

	ax.Ticks = append(ax.Ticks, Tick{At: w.Start, Label: w.Start.Format(tickDateFormat)})

	seen := make(map[time.Time]bool)
	days := make([]time.Time, 0, len(events))
	for _, le := range events {
		s := le.ev.Start
		d := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		if d.Equal(w.Start) || d.Equal(w.End) {
			continue
		}
		ax.Ticks = append(ax.Ticks, Tick{At: d, Label: d.Format(tickDateFormat)})
	}

	ax.Ticks = append(ax.Ticks, Tick{At: w.End, Label: w.End.Format(tickDateFormat)})
	return ax
}

// shiftBands returns the three 8-hour operational shift bands for the day
// starting at dayStart.
func shiftBands(dayStart time.Time) []Band {
	bands := make([]Band, 0, 3)
	for i := 0; i < 3; i++ {
		bands = append(bands, Band{
			Start:   dayStart.Add(time.Duration(i) * shiftLength),
			End:     dayStart.Add(time.Duration(i+1) * shiftLength),
			Color:   shiftColors[i],
			Opacity: shiftBandOpacity,
		})
	}
	return bands
}

// enumerate lists recurrence instances of the given frequency from start
// through end inclusive. Falls back to a plain loop if the rule cannot be
// constructed.
func enumerate(freq rrule.Frequency, start, end time.Time) []time.Time {
	r, err := rrule.NewRRule(rrule.ROption{Freq: freq, Dtstart: start})
	if err == nil {
		return r.Between(start, end, true)
	}

	step := 24 * time.Hour
	if freq == rrule.HOURLY {
		step = time.Hour
	}
	var out []time.Time
	for t := start; !t.After(end); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}
