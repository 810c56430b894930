package deck

import (
	"context"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/task"
	"github.com/taskdeck/taskdeck/pkg/randid"
)

// queuedCmd is an optimistic command waiting for the previous operation
// on the same entity to settle. Its reduction is deferred.
type queuedCmd struct {
	ctx context.Context
	cmd command.EntityCommand
}

// DispatchOptimistic applies an entity mutation immediately and
// confirms it against the backend out-of-band. The returned ID is the
// entity the mutation targets; for creates it is a generated temporary
// ID that settlement later swaps for the backend-assigned one.
//
// A second optimistic operation on an entity with one already in flight
// is queued behind that operation's settlement; operations on distinct
// entities proceed independently.
func (d *Dispatcher) DispatchOptimistic(ctx context.Context, cmd command.EntityCommand) (task.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	if c, ok := cmd.(command.CreateTask); ok && c.ID == "" {
		c.ID = task.ID(task.TempPrefix + randid.Generate(8))
		cmd = c
	}

	entity := cmd.EntityID()
	if _, busy := d.pending[entity]; busy {
		d.queued[entity] = append(d.queued[entity], queuedCmd{ctx: ctx, cmd: cmd})
		return entity, nil
	}

	if err := d.applyOptimistic(ctx, cmd); err != nil {
		return "", err
	}

	return entity, nil
}

// applyOptimistic reduces the command, registers the pending op, and
// launches the confirmation goroutine. Caller must hold d.mu.
func (d *Dispatcher) applyOptimistic(ctx context.Context, cmd command.EntityCommand) error {
	entity := cmd.EntityID()

	// Capture the entity's prior value for entity-scoped rollback.
	var prior *task.Task
	priorIdx := -1
	if t, ok := d.current.Get(entity); ok {
		cloned := t.Clone()
		prior = &cloned
		priorIdx = d.current.IndexOf(entity)
	}

	if _, err := d.apply(cmd); err != nil {
		return err
	}

	op := &pendingOp{cmd: cmd, priorTask: prior, priorIdx: priorIdx}
	d.pending[entity] = op

	d.settling.Add(1)
	go d.confirm(ctx, entity, op)

	return nil
}

// confirm awaits the backend call for one pending op, then settles.
// Runs on its own goroutine, outside the dispatcher lock.
func (d *Dispatcher) confirm(ctx context.Context, entity task.ID, op *pendingOp) {
	defer d.settling.Done()

	var (
		finalID task.ID = entity
		err     error
	)

	switch c := op.cmd.(type) {
	case command.CreateTask:
		// Confirm with the locally reduced task so backend history
		// matches what the caller saw.
		snapshot := d.State()
		t, ok := snapshot.Get(entity)
		if !ok {
			// Undone before settlement; confirm against the command data.
			t = task.New(c.ID, c.Title, c.Description, d.now())
			if c.Priority != "" {
				t.Priority = c.Priority
			}
		}
		var created task.Task
		created, err = d.svc.Create(ctx, t)
		if err == nil {
			finalID = created.ID
		}
	case command.UpdateTask:
		_, err = d.svc.Update(ctx, c.ID, c.Patch)
	case command.DeleteTask:
		_, err = d.svc.Delete(ctx, c.ID)
	default:
		err = fmt.Errorf("command kind %s is not optimistic", op.cmd.Kind())
	}

	d.settle(entity, finalID, op, err)
}

// settle commits or rolls back a pending op and drains the entity's
// queue. Settlement against a closed dispatcher is a no-op.
func (d *Dispatcher) settle(entity, finalID task.ID, op *pendingOp, cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pending, entity)

	if d.closed {
		delete(d.queued, entity)
		return
	}

	if cause != nil {
		d.rollback(entity, op, cause)
		d.failQueued(entity, cause)
		return
	}

	// Commit. For creates, swap the temp ID for the backend-assigned
	// one throughout the store, preserving index position.
	if finalID != entity {
		d.current = d.current.ReplaceID(entity, finalID)
		d.remapQueued(entity, finalID)
	}

	d.bus.PublishOptimisticCommitted(eventbus.OptimisticCommittedPayload{
		Kind:    op.cmd.Kind(),
		TempID:  entity,
		FinalID: finalID,
	})

	d.drainQueued(finalID)
}

// rollback restores the mutated entity to its pre-mutation value.
// The restore is scoped to the one entity so a failure never reverts
// unrelated commits that landed while this op was in flight.
func (d *Dispatcher) rollback(entity task.ID, op *pendingOp, cause error) {
	switch op.cmd.(type) {
	case command.CreateTask:
		d.current = d.current.RemoveTask(entity)
	case command.UpdateTask, command.DeleteTask:
		if op.priorTask != nil {
			d.current = d.current.RestoreTask(*op.priorTask, op.priorIdx)
		}
	}

	optErr := &OptimisticError{Command: op.cmd, Cause: cause}
	d.log.Warn().Str("entity", string(entity)).Err(cause).Msg("optimistic mutation rolled back")
	d.bus.PublishOptimisticFailed(eventbus.OptimisticFailedPayload{
		Command: op.cmd,
		Err:     optErr,
	})
}

// drainQueued applies the next queued command for an entity, if any.
// Caller must hold d.mu.
func (d *Dispatcher) drainQueued(entity task.ID) {
	queue := d.queued[entity]
	if len(queue) == 0 {
		delete(d.queued, entity)
		return
	}

	next := queue[0]
	if len(queue) == 1 {
		delete(d.queued, entity)
	} else {
		d.queued[entity] = queue[1:]
	}

	if err := d.applyOptimistic(next.ctx, next.cmd); err != nil {
		d.bus.PublishOptimisticFailed(eventbus.OptimisticFailedPayload{
			Command: next.cmd,
			Err:     &OptimisticError{Command: next.cmd, Cause: err},
		})
		d.drainQueued(entity)
	}
}

// failQueued rejects every queued command for an entity whose pending
// op rolled back; their target no longer reflects the queued intent.
func (d *Dispatcher) failQueued(entity task.ID, cause error) {
	for _, qc := range d.queued[entity] {
		d.bus.PublishOptimisticFailed(eventbus.OptimisticFailedPayload{
			Command: qc.cmd,
			Err:     &OptimisticError{Command: qc.cmd, Cause: fmt.Errorf("prior operation rolled back: %w", cause)},
		})
	}
	delete(d.queued, entity)
}

// remapQueued rewrites queued commands from the temp ID to the
// backend-assigned ID after a create commits.
func (d *Dispatcher) remapQueued(tempID, finalID task.ID) {
	queue := d.queued[tempID]
	if len(queue) == 0 {
		return
	}
	delete(d.queued, tempID)

	for i, qc := range queue {
		switch c := qc.cmd.(type) {
		case command.UpdateTask:
			c.ID = finalID
			queue[i].cmd = c
		case command.DeleteTask:
			c.ID = finalID
			queue[i].cmd = c
		}
	}
	d.queued[finalID] = queue
}
