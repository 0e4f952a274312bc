package notify

import (
	"sync"
	"time"

	appLog "propcal/internal/log"
)

// Severity mirrors the toast variants of the front end.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notice is a user-facing message emitted after an action.
type Notice struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	EventID     string    `json:"eventId,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	if n.Severity == SeverityDestructive {
		appLog.Warn("notice", "title", n.Title, "description", n.Description, "event_id", n.EventID)
		return
	}
	appLog.Info("notice", "title", n.Title, "description", n.Description, "event_id", n.EventID)
}

// Recorder keeps the most recent notices in memory, newest first.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notice
}

const defaultRecorderLimit = 100

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultRecorderLimit
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append([]Notice{n}, r.items...)
	if len(r.items) > r.limit {
		r.items = r.items[:r.limit]
	}
}

// Recent returns up to n notices, newest first. n <= 0 returns all.
func (r *Recorder) Recent(n int) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.items) {
		n = len(r.items)
	}
	out := make([]Notice, n)
	copy(out, r.items[:n])
	return out
}

// Fanout delivers every notice to each of its notifiers in order.
type Fanout []Notifier

func (f Fanout) Notify(n Notice) {
	for _, t := range f {
		if t != nil {
			t.Notify(n)
		}
	}
}

// Discard drops all notices.
type Discard struct{}

func (Discard) Notify(Notice) {}
