// Package export renders events into interchange formats: iCalendar, CSV
// and Google Calendar template links. Every function is a pure transform.
package export

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"personal-calendar/internal/domain"
)

const (
	productID         = "-//Personal Calendar//EN"
	uidDomain         = "calendar-app"
	googleCalendarURL = "https://calendar.google.com/calendar/render"
	basicUTCLayout    = "20060102T150405Z"
)

var csvHeader = []string{"Title", "Description", "Contacts", "Start Date", "End Date"}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// UID is the iCalendar UID of an event.
func UID(e domain.Event) string {
	return fmt.Sprintf("%d@%s", e.ID, uidDomain)
}

// ICS renders events as a single VCALENDAR with one VEVENT per event.
// Lines are CRLF terminated.
func ICS(events ...domain.Event) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)

	for _, e := range events {
		ve := cal.AddEvent(UID(e))
		ve.SetDtStampTime(e.CreatedAt.UTC())
		ve.SetStartAt(e.Start.UTC())
		ve.SetEndAt(e.End.UTC())
		ve.SetSummary(e.Title)
		if e.Description != nil {
			ve.SetDescription(*e.Description)
		}
		if e.Contacts != nil {
			ve.AddProperty(ical.ComponentPropertyAttendee, *e.Contacts)
		}
	}

	return cal.Serialize()
}

// CSV renders a header row plus one row per event. Every field is quoted.
func CSV(events []domain.Event) string {
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, csvRow(csvHeader))
	for _, e := range events {
		lines = append(lines, csvRow([]string{
			e.Title,
			deref(e.Description),
			deref(e.Contacts),
			ISOTime(e.Start),
			ISOTime(e.End),
		}))
	}
	return strings.Join(lines, "\n")
}

// GoogleCalendarLink builds a "create event" deep link prefilled with e.
func GoogleCalendarLink(e domain.Event) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", e.Title)
	q.Set("dates", BasicUTC(e.Start)+"/"+BasicUTC(e.End))
	q.Set("details", deref(e.Description))
	return googleCalendarURL + "?" + q.Encode()
}

// Filename turns a title into a download-safe file name with ext appended.
func Filename(title, ext string) string {
	name := unsafeFilenameChars.ReplaceAllString(title, "_")
	if name == "" {
		name = "event"
	}
	return name + ext
}

// BasicUTC formats t as YYYYMMDDThhmmssZ.
func BasicUTC(t time.Time) string {
	return t.UTC().Format(basicUTCLayout)
}

// ISOTime formats t in UTC with millisecond precision.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func csvRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
