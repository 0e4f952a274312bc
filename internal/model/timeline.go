package model

// EntryType classifies a timeline entry.
type EntryType string

const (
	EntryCreated    EntryType = "created"
	EntryScheduled  EntryType = "scheduled"
	EntryReschedule EntryType = "rescheduled"
	EntryOverdue    EntryType = "overdue"
	EntryStarted    EntryType = "started"
	EntryCompleted  EntryType = "completed"
	EntryCancelled  EntryType = "cancelled"
	EntryUrgent     EntryType = "urgent"
	EntryNudge      EntryType = "nudge"
	EntryTaskDone   EntryType = "task_completed"
	EntryTaskUndone EntryType = "task_reopened"
)

// TimelineEntry is one audit record on an event.
type TimelineEntry struct {
	ID      string    `json:"id"`
	Date    string    `json:"date"`
	Time    string    `json:"time"`
	Type    EntryType `json:"type"`
	Message string    `json:"message"`
	Actor   string    `json:"user"`
}

// Timeline is ordered newest first.
type Timeline []TimelineEntry

// Prepend returns a new timeline with entry at the front. The receiver is
// not modified.
func (t Timeline) Prepend(entry TimelineEntry) Timeline {
	out := make(Timeline, 0, len(t)+1)
	out = append(out, entry)
	return append(out, t...)
}

// Latest returns the most recent entry.
func (t Timeline) Latest() (TimelineEntry, bool) {
	if len(t) == 0 {
		return TimelineEntry{}, false
	}
	return t[0], true
}
