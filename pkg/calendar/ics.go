// Package calendar renders course occurrences as an iCalendar feed.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//ActivityPass//Course Events//EN"

// Event is one concrete meeting to publish.
type Event struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
}

// Feed describes a calendar document.
type Feed struct {
	Name     string
	Timezone string
	Stamp    time.Time
	Events   []Event
}

// Render serialises feed as a PUBLISH iCalendar document. Times are written in UTC.
func Render(feed Feed) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if feed.Name != "" {
		cal.SetXWRCalName(feed.Name)
	}
	if feed.Timezone != "" {
		cal.SetXWRTimezone(feed.Timezone)
	}
	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, e := range feed.Events {
		if e.UID == "" {
			return "", fmt.Errorf("event %q has no uid", e.Summary)
		}
		if !e.End.After(e.Start) {
			return "", fmt.Errorf("event %s ends before it starts", e.UID)
		}
		vevent := cal.AddEvent(e.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(e.Start)
		vevent.SetEndAt(e.End)
		vevent.SetSummary(e.Summary)
		if e.Location != "" {
			vevent.SetLocation(e.Location)
		}
		if e.Description != "" {
			vevent.SetDescription(e.Description)
		}
	}
	return cal.Serialize(), nil
}
