package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "propcal/internal/log"
)

// Entry is one VEVENT of a feed. Recurrences are not expanded here.
type Entry struct {
	CalendarID string

	UID      string
	Sequence int

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time // set on overrides of a single recurring instance
}

// Override reports whether e replaces one instance of a recurring entry.
func (e Entry) Override() bool { return e.RecurrenceID != nil }

var errMissingUID = errors.New("missing UID")

// Parse decodes a feed body. Floating and date-only values are read in
// floating; nil means time.Local. A VEVENT that cannot be read is logged
// and skipped.
func Parse(cal Calendar, body []byte, floating *time.Location) ([]Entry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if floating == nil {
		floating = time.Local
	}

	parsed, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "calendar", cal.ID, "url", redactURL(cal.URL))
		return nil, err
	}

	entries := make([]Entry, 0, len(parsed.Events()))
	for _, ve := range parsed.Events() {
		e, err := readEntry(ve, floating)
		if err != nil {
			appLog.Warn("skipping vevent", "calendar", cal.ID, "err", err)
			continue
		}
		e.CalendarID = cal.ID
		entries = append(entries, e)
	}

	appLog.Debug("ics parsed", "calendar", cal.ID, "entries", len(entries))
	return entries, nil
}

func readEntry(ve *ical.VEvent, floating *time.Location) (Entry, error) {
	var e Entry

	e.UID = text(ve, ical.ComponentPropertyUniqueId)
	if e.UID == "" {
		return e, errMissingUID
	}
	if n, err := strconv.Atoi(text(ve, ical.ComponentPropertySequence)); err == nil {
		e.Sequence = n
	}
	e.Summary = text(ve, ical.ComponentPropertySummary)
	e.Description = text(ve, ical.ComponentPropertyDescription)
	e.Location = text(ve, ical.ComponentPropertyLocation)

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return e, fmt.Errorf("%s: missing DTSTART", e.UID)
	}
	var err error
	if e.Start, e.AllDay, err = propTime(start.Value, start.ICalParameters, floating); err != nil {
		return e, fmt.Errorf("%s: DTSTART: %w", e.UID, err)
	}

	if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil {
		if e.End, _, err = propTime(end.Value, end.ICalParameters, floating); err != nil {
			return e, fmt.Errorf("%s: DTEND: %w", e.UID, err)
		}
	}
	if !e.End.After(e.Start) {
		if e.AllDay {
			e.End = e.Start.AddDate(0, 0, 1)
		} else {
			e.End = e.Start.Add(time.Hour)
		}
	}

	e.RRule = text(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, v := range strings.Split(p.Value, ",") {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if t, _, err := propTime(v, p.ICalParameters, floating); err == nil {
				e.ExDates = append(e.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); rid != nil {
		if t, _, err := propTime(rid.Value, rid.ICalParameters, floating); err == nil {
			e.RecurrenceID = &t
		}
	}
	return e, nil
}

func text(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// propTime reads a DATE or DATE-TIME value, honouring VALUE=DATE and an
// IANA TZID parameter. It reports whether the value is a bare date.
func propTime(v string, params map[string][]string, floating *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty value")
	}

	loc := floating
	if tz := param(params, "TZID"); tz != "" {
		if l, err := time.LoadLocation(strings.Trim(tz, `"`)); err == nil {
			loc = l
		}
	}

	if strings.EqualFold(param(params, "VALUE"), "DATE") || !strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102", v[:min(len(v), 8)], floating)
		return t, true, err
	}
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t, false, err
	}
	t, err := time.ParseInLocation("20060102T150405", v, loc)
	return t, false, err
}

func param(params map[string][]string, key string) string {
	if vs := params[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
