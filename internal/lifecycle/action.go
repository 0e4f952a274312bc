package lifecycle

import (
	"fmt"
	"strings"

	"propcal/internal/model"
)

// Action names a transition for callers that dispatch by name (HTTP
// routes, MCP tools).
type Action string

const (
	ActionSchedule   Action = "schedule"
	ActionReschedule Action = "reschedule"
	ActionOverdue    Action = "overdue"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionEscalate   Action = "escalate"
	ActionNudge      Action = "nudge"

	ActionCompleteTask Action = "complete_task"
	ActionUndoTask     Action = "undo_task"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionSchedule, ActionReschedule, ActionOverdue, ActionStart,
		ActionComplete, ActionCancel, ActionEscalate, ActionNudge,
		ActionCompleteTask, ActionUndoTask:
		return a, nil
	case "urgent":
		return ActionEscalate, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, s)
}

// Args carries the optional inputs of a transition.
type Args struct {
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	Message string `json:"message,omitempty"`
	Task    string `json:"task,omitempty"`
}

// Apply runs the named transition.
func Apply(e model.Event, a Action, st Stamp, args Args) Result {
	switch a {
	case ActionSchedule:
		return Schedule(e, st, args.Date, args.Time)
	case ActionReschedule:
		return Reschedule(e, st, args.Date, args.Time)
	case ActionOverdue:
		return MarkOverdue(e, st)
	case ActionStart:
		return Start(e, st)
	case ActionComplete:
		return Complete(e, st)
	case ActionCancel:
		return Cancel(e, st, args.Message)
	case ActionEscalate:
		return Escalate(e, st)
	case ActionNudge:
		return Nudge(e, st, args.Message)
	case ActionCompleteTask:
		return CompleteTask(e, st, args.Task)
	case ActionUndoTask:
		return UndoTask(e, st, args.Task)
	}
	return reject(e, st, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a), "Unknown Action")
}
