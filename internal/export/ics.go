// Package export serializes the loss event log for external consumers:
// an ICS feed so operators can subscribe to the log from a calendar app.
package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"lossdash/internal/model"
)

const prodID = "-//lossdash//WCM Loss Log//EN"

// ICS renders the events as an iCalendar subscription feed. Events with
// invalid instants are skipped; UIDs are stable per row so calendar apps
// can update subscriptions in place.
func ICS(events []model.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetName("WCM Loss Log")

	stamp := time.Now().UTC()
	for i, ev := range events {
		if !ev.Valid() {
			continue
		}

		uid := fmt.Sprintf("row%d-%s-%s@lossdash", i, ev.Date, ev.StartTime)
		ve := cal.AddEvent(uid)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)

		summary := ev.Title
		if ev.Category != "" {
			summary = fmt.Sprintf("[%s] %s", ev.Category, ev.Title)
		}
		ve.SetSummary(summary)

		desc := ev.Description
		if desc != "" {
			desc += "\n"
		}
		desc += fmt.Sprintf("Duration: %d min\nScrap + B-Grade: %d m²\nCost: %.2f €",
			ev.DurationMinutes, int(ev.ScrapPlusBGrade()), ev.CostValue())
		ve.SetDescription(desc)
	}

	return cal.Serialize()
}
