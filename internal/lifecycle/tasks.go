package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"propcal/internal/model"
	"propcal/internal/notify"
)

var (
	// ErrTaskNotFound rejects a checklist change for a task the event does
	// not carry.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUndoExpired rejects undoing a task after the day it was completed.
	ErrUndoExpired = errors.New("tasks cannot be undone after 11:59 PM")
)

// CompleteTask ticks off a checklist task. The event status is unchanged.
func CompleteTask(e model.Event, st Stamp, taskID string) Result {
	const title = "Unable to Update Task"
	if r, ok := guard(e, st, title); !ok {
		return r
	}
	i := e.Details.TaskIndex(taskID)
	if i < 0 {
		return reject(e, st, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID), title)
	}
	if e.Details.UnitTurn.Tasks[i].Complete {
		return reject(e, st, fmt.Errorf("%w: task %q is already complete", ErrInvalidTransition, taskID), title)
	}

	next := e.Clone()
	task := &next.Details.UnitTurn.Tasks[i]
	task.Complete = true
	task.CompletedBy = st.actor()
	task.CompletedAt = st.At

	return accept(next, st, st.entry(model.EntryTaskDone, "Completed "+task.Title),
		"Task Updated",
		fmt.Sprintf("%s marked complete", task.Title),
		notify.SeverityDefault)
}

// UndoTask reopens a completed task. It is allowed until the end of the
// day the task was completed, in the location of st.At.
func UndoTask(e model.Event, st Stamp, taskID string) Result {
	const title = "Cannot Undo"
	if r, ok := guard(e, st, title); !ok {
		return r
	}
	i := e.Details.TaskIndex(taskID)
	if i < 0 {
		return reject(e, st, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID), title)
	}
	cur := e.Details.UnitTurn.Tasks[i]
	if !cur.Complete {
		return reject(e, st, fmt.Errorf("%w: task %q is not complete", ErrInvalidTransition, taskID), title)
	}
	if model.FormatDay(cur.CompletedAt.In(st.At.Location())) != model.FormatDay(st.At) {
		return reject(e, st, ErrUndoExpired, title)
	}

	next := e.Clone()
	task := &next.Details.UnitTurn.Tasks[i]
	task.Complete = false
	task.CompletedBy = ""
	task.CompletedAt = time.Time{}

	return accept(next, st, st.entry(model.EntryTaskUndone, "Reopened "+task.Title),
		"Task Updated",
		fmt.Sprintf("%s reopened", task.Title),
		notify.SeverityDefault)
}
