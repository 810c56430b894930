// Package state holds the immutable application state snapshot and the
// pure reducer that folds commands into it.
package state

import (
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// DefaultTheme is used when no theme has been configured or set.
const DefaultTheme = "default"

// EntityStore is the normalized task collection: a map keyed by ID plus
// an ordered index. AllIDs is always a permutation of ByID's key set.
type EntityStore struct {
	ByID   map[task.ID]task.Task `json:"by_id"`
	AllIDs []task.ID             `json:"all_ids"`
}

// View holds the non-entity UI state that commands can also mutate.
type View struct {
	Filter task.Status `json:"filter,omitempty"` // empty means show all
	Theme  string      `json:"theme,omitempty"`
}

// State is one immutable snapshot of the full application state.
// Reducers never mutate a State in place; they return a new one.
type State struct {
	Tasks EntityStore `json:"tasks"`
	View  View        `json:"view"`
}

// New returns an empty state.
func New() State {
	return State{
		Tasks: EntityStore{
			ByID:   map[task.ID]task.Task{},
			AllIDs: []task.ID{},
		},
		View: View{Theme: DefaultTheme},
	}
}

// Clone returns a deep copy. Snapshots stored in the history stack must
// not alias live state.
func (s State) Clone() State {
	out := s
	out.Tasks.ByID = make(map[task.ID]task.Task, len(s.Tasks.ByID))
	for id, t := range s.Tasks.ByID {
		out.Tasks.ByID[id] = t.Clone()
	}
	out.Tasks.AllIDs = make([]task.ID, len(s.Tasks.AllIDs))
	copy(out.Tasks.AllIDs, s.Tasks.AllIDs)
	return out
}

// Get returns the task with the given ID.
func (s State) Get(id task.ID) (task.Task, bool) {
	t, ok := s.Tasks.ByID[id]
	return t, ok
}

// List returns tasks in index order, optionally filtered by status.
// An empty status returns all tasks.
func (s State) List(status task.Status) []task.Task {
	out := make([]task.Task, 0, len(s.Tasks.AllIDs))
	for _, id := range s.Tasks.AllIDs {
		t, ok := s.Tasks.ByID[id]
		if !ok {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Len returns the number of tasks in the store.
func (s State) Len() int {
	return len(s.Tasks.AllIDs)
}

// IndexOf returns the position of an ID in the ordered index, or -1.
func (s State) IndexOf(id task.ID) int {
	for i, cur := range s.Tasks.AllIDs {
		if cur == id {
			return i
		}
	}
	return -1
}

// RemoveTask returns a copy of the state without the given task.
// Removing an absent ID returns the input state unchanged.
func (s State) RemoveTask(id task.ID) State {
	if _, ok := s.Tasks.ByID[id]; !ok {
		return s
	}

	out := s.Clone()
	delete(out.Tasks.ByID, id)
	ids := out.Tasks.AllIDs[:0]
	for _, cur := range out.Tasks.AllIDs {
		if cur != id {
			ids = append(ids, cur)
		}
	}
	out.Tasks.AllIDs = ids
	return out
}

// RestoreTask puts back a prior task value. An existing entry is
// replaced in place; a missing one is re-inserted at idx, clamped to
// the index bounds. Used for entity-scoped optimistic rollback.
func (s State) RestoreTask(t task.Task, idx int) State {
	out := s.Clone()
	if _, ok := out.Tasks.ByID[t.ID]; ok {
		out.Tasks.ByID[t.ID] = t.Clone()
		return out
	}

	if idx < 0 || idx > len(out.Tasks.AllIDs) {
		idx = len(out.Tasks.AllIDs)
	}
	out.Tasks.ByID[t.ID] = t.Clone()
	ids := make([]task.ID, 0, len(out.Tasks.AllIDs)+1)
	ids = append(ids, out.Tasks.AllIDs[:idx]...)
	ids = append(ids, t.ID)
	ids = append(ids, out.Tasks.AllIDs[idx:]...)
	out.Tasks.AllIDs = ids
	return out
}

// ReplaceID rewrites a task's ID in both ByID and AllIDs, preserving its
// position in the index. Used when an optimistic temp ID is swapped for
// the backend-assigned one. Returns the input state unchanged if the old
// ID is absent.
func (s State) ReplaceID(oldID, newID task.ID) State {
	t, ok := s.Tasks.ByID[oldID]
	if !ok || oldID == newID {
		return s
	}

	out := s.Clone()
	delete(out.Tasks.ByID, oldID)
	t = t.Clone()
	t.ID = newID
	out.Tasks.ByID[newID] = t
	for i, id := range out.Tasks.AllIDs {
		if id == oldID {
			out.Tasks.AllIDs[i] = newID
			break
		}
	}
	return out
}
