package eventbus

import (
	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// All event types published on the bus.
const (
	// Keep list sorted A-Z
	EventHistoryRedone       Event = "history.redone"
	EventHistoryUndone       Event = "history.undone"
	EventOptimisticCommitted Event = "optimistic.committed"
	EventOptimisticFailed    Event = "optimistic.failed"
	EventTaskCreated         Event = "task.created"
	EventTaskDeleted         Event = "task.deleted"
	EventTaskUpdated         Event = "task.updated"
)

// TaskCreatedPayload is emitted when a task is added to the store.
type TaskCreatedPayload struct {
	Task task.Task
}

// TaskUpdatedPayload is emitted when a task is modified.
type TaskUpdatedPayload struct {
	Task task.Task
}

// TaskDeletedPayload is emitted when a task is removed from the store.
type TaskDeletedPayload struct {
	ID task.ID
}

// HistoryUndonePayload is emitted after a successful undo.
type HistoryUndonePayload struct {
	PastLen   int
	FutureLen int
}

// HistoryRedonePayload is emitted after a successful redo.
type HistoryRedonePayload struct {
	PastLen   int
	FutureLen int
}

// OptimisticCommittedPayload is emitted when a pending optimistic
// mutation is confirmed by the backend. For creates, FinalID carries the
// backend-assigned ID that replaced TempID.
type OptimisticCommittedPayload struct {
	Kind    command.Kind
	TempID  task.ID
	FinalID task.ID
}

// OptimisticFailedPayload is emitted when a confirmation is rejected and
// the store has been rolled back. This is the error channel the UI layer
// observes; the store itself is already consistent again.
type OptimisticFailedPayload struct {
	Command command.Command
	Err     error
}

// PublishTaskCreated publishes a task.created event.
func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) {
	bus.send(EventTaskCreated, p)
}

// SubscribeTaskCreated registers a subscriber for task.created events.
func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) {
	bus.subscribe(EventTaskCreated, func(v any) {
		if p, ok := v.(TaskCreatedPayload); ok {
			fn(p)
		}
	})
}

// PublishTaskUpdated publishes a task.updated event.
func (bus *EventBus) PublishTaskUpdated(p TaskUpdatedPayload) {
	bus.send(EventTaskUpdated, p)
}

// SubscribeTaskUpdated registers a subscriber for task.updated events.
func (bus *EventBus) SubscribeTaskUpdated(fn func(TaskUpdatedPayload)) {
	bus.subscribe(EventTaskUpdated, func(v any) {
		if p, ok := v.(TaskUpdatedPayload); ok {
			fn(p)
		}
	})
}

// PublishTaskDeleted publishes a task.deleted event.
func (bus *EventBus) PublishTaskDeleted(p TaskDeletedPayload) {
	bus.send(EventTaskDeleted, p)
}

// SubscribeTaskDeleted registers a subscriber for task.deleted events.
func (bus *EventBus) SubscribeTaskDeleted(fn func(TaskDeletedPayload)) {
	bus.subscribe(EventTaskDeleted, func(v any) {
		if p, ok := v.(TaskDeletedPayload); ok {
			fn(p)
		}
	})
}

// PublishHistoryUndone publishes a history.undone event.
func (bus *EventBus) PublishHistoryUndone(p HistoryUndonePayload) {
	bus.send(EventHistoryUndone, p)
}

// SubscribeHistoryUndone registers a subscriber for history.undone events.
func (bus *EventBus) SubscribeHistoryUndone(fn func(HistoryUndonePayload)) {
	bus.subscribe(EventHistoryUndone, func(v any) {
		if p, ok := v.(HistoryUndonePayload); ok {
			fn(p)
		}
	})
}

// PublishHistoryRedone publishes a history.redone event.
func (bus *EventBus) PublishHistoryRedone(p HistoryRedonePayload) {
	bus.send(EventHistoryRedone, p)
}

// SubscribeHistoryRedone registers a subscriber for history.redone events.
func (bus *EventBus) SubscribeHistoryRedone(fn func(HistoryRedonePayload)) {
	bus.subscribe(EventHistoryRedone, func(v any) {
		if p, ok := v.(HistoryRedonePayload); ok {
			fn(p)
		}
	})
}

// PublishOptimisticCommitted publishes an optimistic.committed event.
func (bus *EventBus) PublishOptimisticCommitted(p OptimisticCommittedPayload) {
	bus.send(EventOptimisticCommitted, p)
}

// SubscribeOptimisticCommitted registers a subscriber for optimistic.committed events.
func (bus *EventBus) SubscribeOptimisticCommitted(fn func(OptimisticCommittedPayload)) {
	bus.subscribe(EventOptimisticCommitted, func(v any) {
		if p, ok := v.(OptimisticCommittedPayload); ok {
			fn(p)
		}
	})
}

// PublishOptimisticFailed publishes an optimistic.failed event.
func (bus *EventBus) PublishOptimisticFailed(p OptimisticFailedPayload) {
	bus.send(EventOptimisticFailed, p)
}

// SubscribeOptimisticFailed registers a subscriber for optimistic.failed events.
func (bus *EventBus) SubscribeOptimisticFailed(fn func(OptimisticFailedPayload)) {
	bus.subscribe(EventOptimisticFailed, func(v any) {
		if p, ok := v.(OptimisticFailedPayload); ok {
			fn(p)
		}
	})
}
