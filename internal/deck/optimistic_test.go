package deck

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

func TestOptimisticCreate_Commit(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{gate: gate}
	d, tb := newTestDispatcher(t, svc)
	ctx := context.Background()

	tempID, err := d.DispatchOptimistic(ctx, command.CreateTask{Title: "ship it"})
	require.NoError(t, err)
	assert.True(t, tempID.IsTemp())

	// Visible immediately under the temp ID.
	got, ok := d.State().Get(tempID)
	require.True(t, ok)
	assert.Equal(t, "ship it", got.Title)

	close(gate)
	d.Wait()

	// Settlement swapped in the backend-assigned ID at the same position.
	st := d.State()
	_, ok = st.Get(tempID)
	assert.False(t, ok)
	final, ok := st.Get("task_1")
	require.True(t, ok)
	assert.Equal(t, task.ID("task_1"), final.ID)
	assert.Equal(t, 0, st.IndexOf("task_1"))

	tb.AssertPublished(t, eventbus.EventOptimisticCommitted)
	assert.Equal(t, 1, d.PastLen())
}

func TestOptimisticCreate_RollbackRemovesTask(t *testing.T) {
	svc := &fakeService{createErr: errors.New("title rejected")}
	d, tb := newTestDispatcher(t, svc)

	before := d.State()

	tempID, err := d.DispatchOptimistic(context.Background(), command.CreateTask{Title: "nope"})
	require.NoError(t, err)

	d.Wait()

	_, ok := d.State().Get(tempID)
	assert.False(t, ok)
	assert.Empty(t, cmp.Diff(before, d.State()))

	tb.AssertPublished(t, eventbus.EventOptimisticFailed)
	tb.AssertNotPublished(t, eventbus.EventOptimisticCommitted)
}

func TestOptimisticUpdate_RollbackRestoresPriorValue(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{updateErr: errors.New("backend says no"), gate: gate}
	d, tb := newTestDispatcher(t, svc)

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "original"}))

	title := "optimistic"
	_, err := d.DispatchOptimistic(context.Background(), command.UpdateTask{
		ID:    "a",
		Patch: task.Patch{Title: &title},
	})
	require.NoError(t, err)

	// The mutation is visible before settlement.
	got, _ := d.State().Get("a")
	assert.Equal(t, "optimistic", got.Title)

	close(gate)
	d.Wait()

	got, ok := d.State().Get("a")
	require.True(t, ok)
	assert.Equal(t, "original", got.Title)
	tb.AssertPublished(t, eventbus.EventOptimisticFailed)
}

func TestOptimisticDelete_RollbackReinsertsAtIndex(t *testing.T) {
	svc := &fakeService{deleteErr: errors.New("delete rejected")}
	d, tb := newTestDispatcher(t, svc)

	for _, id := range []task.ID{"a", "b", "c"} {
		require.NoError(t, d.Dispatch(command.CreateTask{ID: id, Title: string(id)}))
	}

	_, err := d.DispatchOptimistic(context.Background(), command.DeleteTask{ID: "b"})
	require.NoError(t, err)

	d.Wait()

	st := d.State()
	assert.Equal(t, []task.ID{"a", "b", "c"}, st.Tasks.AllIDs)
	tb.AssertPublished(t, eventbus.EventOptimisticFailed)
}

func TestOptimisticRollback_DoesNotRevertOtherEntities(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{updateErr: errors.New("rejected"), gate: gate}
	d, _ := newTestDispatcher(t, svc)

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "a"}))

	title := "doomed"
	_, err := d.DispatchOptimistic(context.Background(), command.UpdateTask{
		ID:    "a",
		Patch: task.Patch{Title: &title},
	})
	require.NoError(t, err)

	// An unrelated synchronous mutation lands while the op is in flight.
	require.NoError(t, d.Dispatch(command.CreateTask{ID: "b", Title: "survivor"}))

	close(gate)
	d.Wait()

	st := d.State()
	rolled, _ := st.Get("a")
	assert.Equal(t, "a", rolled.Title)
	_, ok := st.Get("b")
	assert.True(t, ok, "unrelated task must survive the rollback")
}

func TestOptimisticSameEntity_SecondOpWaitsForFirst(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{gate: gate}
	d, _ := newTestDispatcher(t, svc)
	ctx := context.Background()

	tempID, err := d.DispatchOptimistic(ctx, command.CreateTask{Title: "queued target"})
	require.NoError(t, err)

	title := "renamed"
	_, err = d.DispatchOptimistic(ctx, command.UpdateTask{
		ID:    tempID,
		Patch: task.Patch{Title: &title},
	})
	require.NoError(t, err)

	// The update is deferred: the backend has not seen it yet.
	assert.Empty(t, svc.updatedIDs())

	close(gate)
	d.Wait()

	// The queued update ran against the backend-assigned ID.
	require.Equal(t, []task.ID{"task_1"}, svc.updatedIDs())

	got, ok := d.State().Get("task_1")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Title)
}

func TestOptimisticSameEntity_QueuedFailsWhenPredecessorRollsBack(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{createErr: errors.New("create rejected"), gate: gate}
	d, tb := newTestDispatcher(t, svc)
	ctx := context.Background()

	tempID, err := d.DispatchOptimistic(ctx, command.CreateTask{Title: "doomed"})
	require.NoError(t, err)

	title := "never applied"
	_, err = d.DispatchOptimistic(ctx, command.UpdateTask{
		ID:    tempID,
		Patch: task.Patch{Title: &title},
	})
	require.NoError(t, err)

	close(gate)
	d.Wait()

	_, ok := d.State().Get(tempID)
	assert.False(t, ok)
	assert.Empty(t, svc.updatedIDs())

	// Both the create and the queued update are reported as failures.
	tb.AssertPublished(t, eventbus.EventOptimisticFailed)
	failures := 0
	for _, e := range tb.Events() {
		if e.Event == eventbus.EventOptimisticFailed {
			failures++
		}
	}
	assert.Equal(t, 2, failures)
}

func TestOptimisticDistinctEntities_ProceedIndependently(t *testing.T) {
	svc := &fakeService{}
	d, _ := newTestDispatcher(t, svc)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "a"}))
	require.NoError(t, d.Dispatch(command.CreateTask{ID: "b", Title: "b"}))

	titleA, titleB := "a2", "b2"
	_, err := d.DispatchOptimistic(ctx, command.UpdateTask{ID: "a", Patch: task.Patch{Title: &titleA}})
	require.NoError(t, err)
	_, err = d.DispatchOptimistic(ctx, command.UpdateTask{ID: "b", Patch: task.Patch{Title: &titleB}})
	require.NoError(t, err)

	d.Wait()

	gotA, _ := d.State().Get("a")
	gotB, _ := d.State().Get("b")
	assert.Equal(t, "a2", gotA.Title)
	assert.Equal(t, "b2", gotB.Title)
	assert.ElementsMatch(t, []task.ID{"a", "b"}, svc.updatedIDs())
}

func TestOptimisticSettle_AfterCloseIsNoOp(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{gate: gate}
	d, tb := newTestDispatcher(t, svc)

	tempID, err := d.DispatchOptimistic(context.Background(), command.CreateTask{Title: "late"})
	require.NoError(t, err)

	d.Close()
	close(gate)
	d.Wait()

	// Settlement after close neither commits nor rolls back.
	st := d.State()
	_, ok := st.Get(tempID)
	assert.True(t, ok)
	tb.AssertNotPublished(t, eventbus.EventOptimisticCommitted)
	tb.AssertNotPublished(t, eventbus.EventOptimisticFailed)
}

func TestOptimisticFailure_WrapsCause(t *testing.T) {
	cause := errors.New("boom")
	svc := &fakeService{createErr: cause}
	d, tb := newTestDispatcher(t, svc)

	_, err := d.DispatchOptimistic(context.Background(), command.CreateTask{Title: "x"})
	require.NoError(t, err)
	d.Wait()

	tb.AssertPublished(t, eventbus.EventOptimisticFailed)
	for _, e := range tb.Events() {
		p, ok := e.Payload.(eventbus.OptimisticFailedPayload)
		if !ok {
			continue
		}
		var optErr *OptimisticError
		require.ErrorAs(t, p.Err, &optErr)
		assert.ErrorIs(t, p.Err, cause)
	}
}
