package timeline

import "time"

// assignLanes packs the already-sorted events of each category into lanes
// and writes the lane index back into the slice. It returns the number of
// lanes used per category.
//
// Day/Week pack by temporal overlap: an event joins the first lane whose
// last event ends at or before the event's start. Month mode ignores
// time-of-day and packs by calendar-day uniqueness: a lane may hold any
// number of events as long as no two fall on the same day. Both are
// greedy first-fit; the contract is determinism under the sorted order,
// not a minimal lane count.
func assignLanes(events []laneEvent, monthMode bool) map[string]int {
	laneCounts := make(map[string]int)

	i := 0
	for i < len(events) {
		// Events are sorted by category; each group is contiguous.
		j := i
		cat := events[i].ev.Category
		for j < len(events) && events[j].ev.Category == cat {
			j++
		}

		if monthMode {
			packByDay(events[i:j])
		} else {
			packByInterval(events[i:j])
		}

		maxLane := 0
		for k := i; k < j; k++ {
			if events[k].lane > maxLane {
				maxLane = events[k].lane
			}
		}
		laneCounts[cat] = maxLane + 1
		i = j
	}

	return laneCounts
}

// packByInterval is the Day/Week packing: first lane whose latest end is
// at or before this event's start, else a new lane.
func packByInterval(group []laneEvent) {
	var laneEnds []time.Time
	for k := range group {
		ev := &group[k]
		placed := false
		for l, end := range laneEnds {
			if !ev.ev.Start.Before(end) {
				ev.lane = l
				laneEnds[l] = ev.ev.End
				placed = true
				break
			}
		}
		if !placed {
			ev.lane = len(laneEnds)
			laneEnds = append(laneEnds, ev.ev.End)
		}
	}
}

// packByDay is the Month packing: first lane with no event on the same
// calendar day, else a new lane.
func packByDay(group []laneEvent) {
	var laneDays []map[string]bool
	for k := range group {
		ev := &group[k]
		day := ev.ev.Start.Format("2006-01-02")
		placed := false
		for l, days := range laneDays {
			if !days[day] {
				ev.lane = l
				days[day] = true
				placed = true
				break
			}
		}
		if !placed {
			ev.lane = len(laneDays)
			laneDays = append(laneDays, map[string]bool{day: true})
		}
	}
}
