// Package command defines the tagged mutation commands that drive the
// state reducer and undo/redo bookkeeping. Commands are immutable once
// issued and carry only the data needed to apply the mutation.
package command

import (
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// Kind identifies the command variant.
type Kind string

const (
	KindCreateTask Kind = "create_task"
	KindUpdateTask Kind = "update_task"
	KindDeleteTask Kind = "delete_task"
	KindSetFilter  Kind = "set_filter"
	KindSetTheme   Kind = "set_theme"
)

// Command is a description of a requested state mutation.
type Command interface {
	Kind() Kind
}

// EntityCommand is a command that targets a single task. Optimistic
// dispatches against the same entity are serialized using this ID.
type EntityCommand interface {
	Command
	EntityID() task.ID
}

// CreateTask inserts a new task into the store.
type CreateTask struct {
	ID          task.ID       `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
}

func (c CreateTask) Kind() Kind       { return KindCreateTask }
func (c CreateTask) EntityID() task.ID { return c.ID }

// UpdateTask merges a partial update into an existing task.
type UpdateTask struct {
	ID    task.ID    `json:"id"`
	Patch task.Patch `json:"patch"`
	Actor string     `json:"actor,omitempty"`
}

func (c UpdateTask) Kind() Kind       { return KindUpdateTask }
func (c UpdateTask) EntityID() task.ID { return c.ID }

// DeleteTask removes a task from the store. Deleting an absent task is
// a no-op, not an error.
type DeleteTask struct {
	ID task.ID `json:"id"`
}

func (c DeleteTask) Kind() Kind       { return KindDeleteTask }
func (c DeleteTask) EntityID() task.ID { return c.ID }

// SetFilter changes the active status filter. An empty status means
// "show all".
type SetFilter struct {
	Status task.Status `json:"status,omitempty"`
}

func (c SetFilter) Kind() Kind { return KindSetFilter }

// SetTheme changes the active UI theme.
type SetTheme struct {
	Name string `json:"name"`
}

func (c SetTheme) Kind() Kind { return KindSetTheme }
