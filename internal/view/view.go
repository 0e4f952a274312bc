// Package view composes the event collection into the lists and counts
// shown on the role dashboards.
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	appLog "propcal/internal/log"
	"propcal/internal/model"
)

// Buckets splits events for the Today tab.
type Buckets struct {
	// Today holds non-terminal events dated today, by time.
	Today []model.Event `json:"today"`
	// Queue holds non-terminal events that still need placement: never
	// scheduled, overdue, or scheduled on another day without a time.
	Queue []model.Event `json:"queue"`
	// Completed holds completed events, most recently updated first.
	Completed []model.Event `json:"completed"`
}

// Bucket sorts events into Today, Queue and Completed. Cancelled events
// appear in none of them.
func Bucket(events []model.Event, today string) Buckets {
	var b Buckets
	for _, e := range events {
		switch {
		case e.Status == model.StatusCompleted:
			b.Completed = append(b.Completed, e)
		case e.Status == model.StatusCancelled:
		case e.Date != "" && model.SameDay(e.Date, today) && e.Time != "":
			b.Today = append(b.Today, e)
		case e.Status == model.StatusSubmitted || e.Status == model.StatusOverdue || !e.Scheduled():
			b.Queue = append(b.Queue, e)
		}
	}
	SortByStart(b.Today)
	slices.SortStableFunc(b.Completed, func(a, c model.Event) int {
		return c.UpdatedAt.Compare(a.UpdatedAt)
	})
	return b
}

// Counts tallies events per status.
type Counts struct {
	Unscheduled int `json:"unscheduled"`
	Scheduled   int `json:"scheduled"`
	Overdue     int `json:"overdue"`
	InProgress  int `json:"inProgress"`
	Completed   int `json:"completed"`
	Cancelled   int `json:"cancelled"`
	Urgent      int `json:"urgent"`
}

func Count(events []model.Event) Counts {
	var c Counts
	for _, e := range events {
		switch e.Status {
		case model.StatusSubmitted:
			c.Unscheduled++
		case model.StatusScheduled:
			c.Scheduled++
		case model.StatusOverdue:
			c.Overdue++
		case model.StatusInProgress:
			c.InProgress++
		case model.StatusCompleted:
			c.Completed++
		case model.StatusCancelled:
			c.Cancelled++
		}
		if e.Priority == model.PriorityUrgent && !e.IsTerminal() {
			c.Urgent++
		}
	}
	return c
}

// Queue filters work orders for the maintenance queue and orders them by
// priority, then by how long they have been open.
//
// filter is "all" (or empty), a status, or a priority; an event matches
// when either its status or its priority equals the filter.
func Queue(events []model.Event, filter string, now time.Time) []model.Event {
	filter = strings.ToLower(strings.TrimSpace(filter))
	var status model.Status
	var priority model.Priority
	if filter != "" && filter != "all" {
		if s, err := model.ParseStatus(filter); err == nil {
			status = s
		}
		if p, err := model.ParsePriority(filter); err == nil {
			priority = p
		}
	}

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Kind != model.KindWorkOrder || e.IsTerminal() {
			continue
		}
		if filter != "" && filter != "all" && e.Status != status && e.Priority != priority {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b model.Event) int {
		if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.DaysOpen(now), a.DaysOpen(now))
	})
	return out
}

// SortByStart orders events by date then time. Events without a time sort
// after timed ones on the same day.
func SortByStart(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		as, aok := a.Start()
		bs, bok := b.Start()
		switch {
		case aok && bok:
			return cmp.Compare(as, bs)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
}

// OnDays returns events whose date lies in [from, to], sorted by start.
// Events with an unreadable date are logged and left out.
func OnDays(events []model.Event, from, to string) []model.Event {
	var out []model.Event
	for _, e := range events {
		if e.Date == "" || e.Status == model.StatusCancelled {
			continue
		}
		d, err := model.ParseDay(e.Date, time.UTC)
		if err != nil {
			appLog.Warn("skipping event with bad date", "event_id", e.ID, "date", e.Date)
			continue
		}
		day := model.FormatDay(d)
		if day >= from && day <= to {
			out = append(out, e)
		}
	}
	SortByStart(out)
	return out
}
