package ics

import (
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"propcal/internal/model"
)

const productID = "-//propcal//schedule//EN"

// Export renders events with a date as a VCALENDAR. Cancelled events and
// events still waiting in the queue are left out. Timed events are written
// in UTC; dateless times fall back to all-day entries.
func Export(events []model.Event, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		if e.Date == "" || e.Status == model.StatusCancelled {
			continue
		}
		day, err := model.ParseDay(e.Date, loc)
		if err != nil {
			continue
		}

		ve := cal.AddEvent(e.ID + "@propcal")
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if where := e.Location.String(); where != "" {
			ve.SetLocation(where)
		} else if c := e.Details.Community; c != nil && c.Location != "" {
			ve.SetLocation(c.Location)
		}
		ve.SetProperty(ical.ComponentPropertyCategories, string(e.Kind))
		ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(icalPriority(e.Priority)))
		ve.SetStatus(eventStatus(e.Status))

		start, timed := e.Start()
		if !timed {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		begin := time.Date(day.Year(), day.Month(), day.Day(), start/60, start%60, 0, 0, loc)
		dur := e.DurationMinutes
		if dur <= 0 {
			dur = 60
		}
		ve.SetStartAt(begin.UTC())
		ve.SetEndAt(begin.Add(time.Duration(dur) * time.Minute).UTC())
	}
	return cal.Serialize()
}

// eventStatus maps onto the VEVENT statuses; COMPLETED exists only for
// VTODO, so finished work is exported as CONFIRMED.
func eventStatus(s model.Status) ical.ObjectStatus {
	switch s {
	case model.StatusScheduled, model.StatusInProgress, model.StatusCompleted:
		return ical.ObjectStatusConfirmed
	}
	return ical.ObjectStatusTentative
}

// icalPriority maps to RFC 5545 PRIORITY, where 1 is highest.
func icalPriority(p model.Priority) int {
	switch p {
	case model.PriorityUrgent:
		return 1
	case model.PriorityHigh:
		return 3
	case model.PriorityLow:
		return 9
	}
	return 5
}
