package model

import (
	"strings"
	"time"
)

const (
	RecipientManagement  = "management"
	RecipientMaintenance = "maintenance"
	RecipientLeasing     = "leasing"
)

// ResponseWindow is how long a recipient usually takes to answer a
// message. Unknown recipients answer like management.
func ResponseWindow(recipient string) time.Duration {
	switch strings.ToLower(strings.TrimSpace(recipient)) {
	case RecipientMaintenance:
		return 4 * time.Hour
	case RecipientLeasing:
		return time.Hour
	}
	return 2 * time.Hour
}

// WithExpectedReply fills in when a message should be answered, counted
// from sent. Events that are not messages, or already carry a reply time,
// are returned as is. The receiver's details are not modified.
func (e Event) WithExpectedReply(sent time.Time) Event {
	m := e.Details.Message
	if m == nil || !m.ExpectedReply.IsZero() {
		return e
	}
	v := *m
	v.ExpectedReply = sent.Add(ResponseWindow(v.RecipientType))
	e.Details.Message = &v
	return e
}
