// Package deck wires the state container together: the dispatch facade
// that owns the entity store and history stacks, and the optimistic
// coordinator that confirms mutations against the task backend.
package deck

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/history"
	"github.com/taskdeck/taskdeck/internal/core/state"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// ErrClosed is returned when dispatching against a closed dispatcher.
var ErrClosed = errors.New("dispatcher closed")

// OptimisticError wraps a confirmation failure after the store has been
// rolled back. It carries the original command and the failure cause.
type OptimisticError struct {
	Command command.Command
	Cause   error
}

func (e *OptimisticError) Error() string {
	return fmt.Sprintf("optimistic %s failed: %v", e.Command.Kind(), e.Cause)
}

func (e *OptimisticError) Unwrap() error { return e.Cause }

// pendingOp tracks one in-flight optimistic mutation from apply to
// settlement. Entries never outlive settlement.
type pendingOp struct {
	cmd       command.EntityCommand
	priorTask *task.Task // entity value before the mutation, nil for creates
	priorIdx  int        // position in AllIDs, for delete rollback
}

// Dispatcher is the single entry point for all state mutations. It
// exclusively owns the current state and the history stacks; callers
// only ever see cloned snapshots.
//
// All mutations are serialized by one mutex, the Go rendition of the
// single-threaded event loop the container semantics assume.
// Confirmation calls run on their own goroutines and re-enter through
// the same mutex to settle.
type Dispatcher struct {
	mu      sync.Mutex
	current state.State
	hist    *history.Stack
	closed  bool

	svc task.Service
	bus *eventbus.EventBus
	log zerolog.Logger
	now func() time.Time

	pending  map[task.ID]*pendingOp
	queued   map[task.ID][]queuedCmd
	settling sync.WaitGroup
}

// NewDispatcher creates a dispatcher owning the given initial state.
func NewDispatcher(initial state.State, hist *history.Stack, svc task.Service, bus *eventbus.EventBus, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		current: initial.Clone(),
		hist:    hist,
		svc:     svc,
		bus:     bus,
		log:     log.With().Str("component", "dispatcher").Logger(),
		now:     time.Now,
		pending: map[task.ID]*pendingOp{},
		queued:  map[task.ID][]queuedCmd{},
	}
}

// State returns a snapshot of the current state.
func (d *Dispatcher) State() state.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current.Clone()
}

// CanUndo reports whether an undo is possible.
func (d *Dispatcher) CanUndo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.CanUndo()
}

// CanRedo reports whether a redo is possible.
func (d *Dispatcher) CanRedo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.CanRedo()
}

// PastLen returns the undo stack depth.
func (d *Dispatcher) PastLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.PastLen()
}

// FutureLen returns the redo stack depth.
func (d *Dispatcher) FutureLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.FutureLen()
}

// Dispatch applies a synchronous command: history record, then reduce.
// Reducer errors leave both the state and the history stacks untouched.
func (d *Dispatcher) Dispatch(cmd command.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	_, err := d.apply(cmd)
	return err
}

// apply reduces cmd into the current state and records the pre-mutation
// snapshot. Caller must hold d.mu. Returns the pre-mutation snapshot.
func (d *Dispatcher) apply(cmd command.Command) (state.State, error) {
	pre := d.current
	next, err := state.Reduce(pre, cmd, d.now())
	if err != nil {
		return state.State{}, err
	}

	d.hist.Record(pre)
	d.current = next
	d.publishMutation(cmd)

	return pre, nil
}

func (d *Dispatcher) publishMutation(cmd command.Command) {
	switch c := cmd.(type) {
	case command.CreateTask:
		if t, ok := d.current.Get(c.ID); ok {
			d.bus.PublishTaskCreated(eventbus.TaskCreatedPayload{Task: t})
		}
	case command.UpdateTask:
		if t, ok := d.current.Get(c.ID); ok {
			d.bus.PublishTaskUpdated(eventbus.TaskUpdatedPayload{Task: t})
		}
	case command.DeleteTask:
		d.bus.PublishTaskDeleted(eventbus.TaskDeletedPayload{ID: c.ID})
	}
}

// Undo restores the most recent past snapshot. It bypasses the reducer
// and is not itself recorded.
func (d *Dispatcher) Undo() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	prev, err := d.hist.Undo(d.current)
	if err != nil {
		return err
	}

	d.current = prev
	d.bus.PublishHistoryUndone(eventbus.HistoryUndonePayload{
		PastLen:   d.hist.PastLen(),
		FutureLen: d.hist.FutureLen(),
	})
	return nil
}

// Redo restores the most recent future snapshot.
func (d *Dispatcher) Redo() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	next, err := d.hist.Redo(d.current)
	if err != nil {
		return err
	}

	d.current = next
	d.bus.PublishHistoryRedone(eventbus.HistoryRedonePayload{
		PastLen:   d.hist.PastLen(),
		FutureLen: d.hist.FutureLen(),
	})
	return nil
}

// Snapshot exports the current state and history stacks for persistence.
func (d *Dispatcher) Snapshot() (current state.State, past, future []state.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	past, future = d.hist.Snapshot()
	return d.current.Clone(), past, future
}

// Wait blocks until every pending optimistic operation has settled.
func (d *Dispatcher) Wait() {
	d.settling.Wait()
}

// Close tears the dispatcher down. In-flight confirmations still settle
// against the backend, but their commits and rollbacks become no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
