package state

import (
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// Reduce folds a command into the state, returning a new snapshot. It is
// pure: the input state is never mutated, and the same inputs always
// produce the same output. The clock is an argument so callers control
// timestamp stamping.
//
// Unrecognized command kinds return the input state unchanged.
func Reduce(s State, cmd command.Command, now time.Time) (State, error) {
	switch c := cmd.(type) {
	case command.CreateTask:
		return reduceCreate(s, c, now)
	case command.UpdateTask:
		return reduceUpdate(s, c, now)
	case command.DeleteTask:
		return reduceDelete(s, c)
	case command.SetFilter:
		out := s.Clone()
		out.View.Filter = c.Status
		return out, nil
	case command.SetTheme:
		out := s.Clone()
		out.View.Theme = c.Name
		return out, nil
	default:
		return s, nil
	}
}

func reduceCreate(s State, c command.CreateTask, now time.Time) (State, error) {
	if _, exists := s.Tasks.ByID[c.ID]; exists {
		return s, fmt.Errorf("create task %q: %w", c.ID, task.ErrDuplicateID)
	}

	t := task.New(c.ID, c.Title, c.Description, now)
	if c.Priority != "" {
		t.Priority = c.Priority
	}

	out := s.Clone()
	out.Tasks.ByID[t.ID] = t
	out.Tasks.AllIDs = append(out.Tasks.AllIDs, t.ID)
	return out, nil
}

func reduceUpdate(s State, c command.UpdateTask, now time.Time) (State, error) {
	t, ok := s.Tasks.ByID[c.ID]
	if !ok {
		return s, fmt.Errorf("update task %q: %w", c.ID, task.ErrNotFound)
	}

	out := s.Clone()
	out.Tasks.ByID[c.ID] = c.Patch.Apply(t, c.Actor, now)
	return out, nil
}

func reduceDelete(s State, c command.DeleteTask) (State, error) {
	if _, ok := s.Tasks.ByID[c.ID]; !ok {
		// Idempotent: deleting an absent task is not an error.
		return s, nil
	}

	out := s.Clone()
	delete(out.Tasks.ByID, c.ID)
	ids := out.Tasks.AllIDs[:0]
	for _, id := range out.Tasks.AllIDs {
		if id != c.ID {
			ids = append(ids, id)
		}
	}
	out.Tasks.AllIDs = ids
	return out, nil
}
