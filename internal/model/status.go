package model

import (
	"errors"
	"fmt"
	"strings"
)

// Status is where an event sits in its lifecycle. Priority is tracked
// separately; see Priority.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusScheduled  Status = "scheduled"
	StatusOverdue    Status = "overdue"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrUnknownStatus   = errors.New("unknown status")
	ErrUnknownPriority = errors.New("unknown priority")
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusSubmitted, StatusScheduled, StatusOverdue,
	StatusInProgress, StatusCompleted, StatusCancelled,
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus accepts the canonical names plus "unscheduled" (alias of
// submitted) and "in_progress".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "submitted", "unscheduled", "":
		return StatusSubmitted, nil
	case "scheduled":
		return StatusScheduled, nil
	case "overdue":
		return StatusOverdue, nil
	case "in-progress", "in_progress", "inprogress":
		return StatusInProgress, nil
	case "completed", "complete":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Priority is the urgency of an event.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities from 1 (low) to 4 (urgent). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	case "":
		return PriorityMedium, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

// ParseLegacy reads a (status, priority) pair from older records where
// "urgent" was sometimes stored as a status. Such records keep their
// lifecycle position (scheduled when they have a date, submitted
// otherwise) and get priority urgent.
func ParseLegacy(status, priority string, hasDate bool) (Status, Priority, error) {
	if strings.EqualFold(strings.TrimSpace(status), "urgent") {
		if hasDate {
			return StatusScheduled, PriorityUrgent, nil
		}
		return StatusSubmitted, PriorityUrgent, nil
	}
	st, err := ParseStatus(status)
	if err != nil {
		return "", "", err
	}
	pr, err := ParsePriority(priority)
	if err != nil {
		return "", "", err
	}
	return st, pr, nil
}

// NormalizeLegacy applies ParseLegacy to an incoming event, so a record
// carrying status "urgent" or an alias such as "unscheduled" is stored
// under the canonical names.
func NormalizeLegacy(e Event) (Event, error) {
	st, pr, err := ParseLegacy(string(e.Status), string(e.Priority), e.Date != "")
	if err != nil {
		return e, fmt.Errorf("event %s: %w", e.ID, err)
	}
	e.Status, e.Priority = st, pr
	return e, nil
}
