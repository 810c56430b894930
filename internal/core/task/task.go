// Package task defines the task domain model and the confirmation
// service contract used by the optimistic dispatcher.
package task

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrDuplicateID is returned when a task is created with an ID that is already taken.
	ErrDuplicateID = errors.New("duplicate task id")
)

// ID uniquely identifies a task. Optimistically created tasks carry a
// "tmp_" prefixed ID until the backend assigns the real one.
type ID string

// TempPrefix marks IDs that have not yet been confirmed by the backend.
const TempPrefix = "tmp_"

// IsTemp reports whether the ID is a provisional, unconfirmed identifier.
func (id ID) IsTemp() bool {
	return len(id) > len(TempPrefix) && id[:len(TempPrefix)] == TempPrefix
}

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a supported value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks if the priority is a supported value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ChangeKind classifies a history entry on a task.
type ChangeKind string

const (
	ChangeKindCreated ChangeKind = "created"
	ChangeKindUpdated ChangeKind = "updated"
)

// FieldDelta records one field's before/after values in a change entry.
type FieldDelta struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ChangeEntry is one record in a task's append-only change history.
// Entries are ordered by non-decreasing timestamp.
type ChangeEntry struct {
	Timestamp time.Time             `json:"timestamp"`
	Actor     string                `json:"actor,omitempty"`
	Kind      ChangeKind            `json:"kind"`
	Diff      map[string]FieldDelta `json:"diff,omitempty"`
}

// Task represents a single tracked task.
type Task struct {
	ID          ID            `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	Priority    Priority      `json:"priority"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	History     []ChangeEntry `json:"history,omitempty"`
}

// New creates a task with defaults applied and a "created" history entry.
func New(id ID, title, description string, now time.Time) Task {
	return Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      StatusPending,
		Priority:    PriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
		History: []ChangeEntry{
			{Timestamp: now, Kind: ChangeKindCreated},
		},
	}
}

// Clone returns a deep copy of the task. The History slice is copied so
// snapshots never alias each other.
func (t Task) Clone() Task {
	out := t
	if t.History != nil {
		out.History = make([]ChangeEntry, len(t.History))
		copy(out.History, t.History)
		for i, e := range out.History {
			if e.Diff != nil {
				diff := make(map[string]FieldDelta, len(e.Diff))
				for k, v := range e.Diff {
					diff[k] = v
				}
				out.History[i].Diff = diff
			}
		}
	}
	return out
}
