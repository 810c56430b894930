package deck

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/eventbus/testbus"
	"github.com/taskdeck/taskdeck/internal/core/history"
	"github.com/taskdeck/taskdeck/internal/core/state"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// fakeService is an in-memory task.Service with settable failures and
// an optional gate that blocks confirmation calls until released.
type fakeService struct {
	mu     sync.Mutex
	nextID int

	createErr error
	updateErr error
	deleteErr error

	gate chan struct{}

	creates []task.Task
	updates []task.ID
	deletes []task.ID
}

func (f *fakeService) block() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeService) Create(ctx context.Context, t task.Task) (task.Task, error) {
	f.block()
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return task.Task{}, f.createErr
	}
	f.nextID++
	t.ID = task.ID(fmt.Sprintf("task_%d", f.nextID))
	f.creates = append(f.creates, t)
	return t, nil
}

func (f *fakeService) Update(ctx context.Context, id task.ID, patch task.Patch) (task.Task, error) {
	f.block()
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return task.Task{}, f.updateErr
	}
	f.updates = append(f.updates, id)
	return task.Task{ID: id}, nil
}

func (f *fakeService) Delete(ctx context.Context, id task.ID) (bool, error) {
	f.block()
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	return true, nil
}

func (f *fakeService) updatedIDs() []task.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]task.ID, len(f.updates))
	copy(out, f.updates)
	return out
}

func newTestDispatcher(t *testing.T, svc task.Service) (*Dispatcher, *testbus.Bus) {
	t.Helper()

	tb := testbus.New(t)
	d := NewDispatcher(state.New(), history.NewStack(history.DefaultMaxDepth), svc, tb.EventBus, zerolog.Nop())
	return d, tb
}

func TestDispatch_UndoRedoRestoresExactSnapshots(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeService{})

	snapshots := []state.State{d.State()}
	for i := 0; i < 3; i++ {
		err := d.Dispatch(command.CreateTask{
			ID:    task.ID(fmt.Sprintf("t%d", i)),
			Title: fmt.Sprintf("task %d", i),
		})
		require.NoError(t, err)
		snapshots = append(snapshots, d.State())
	}

	require.Equal(t, 3, d.PastLen())

	// Undo all the way down, comparing each restored state bit for bit.
	for i := 2; i >= 0; i-- {
		require.NoError(t, d.Undo())
		assert.Empty(t, cmp.Diff(snapshots[i], d.State()))
	}
	assert.False(t, d.CanUndo())
	assert.Equal(t, 3, d.FutureLen())

	// And back up again.
	for i := 1; i <= 3; i++ {
		require.NoError(t, d.Redo())
		assert.Empty(t, cmp.Diff(snapshots[i], d.State()))
	}
	assert.False(t, d.CanRedo())
}

func TestDispatch_NewCommandClearsRedo(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeService{})

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "a"}))
	require.NoError(t, d.Dispatch(command.CreateTask{ID: "b", Title: "b"}))
	require.NoError(t, d.Undo())
	require.True(t, d.CanRedo())

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "c", Title: "c"}))
	assert.False(t, d.CanRedo())
	assert.Equal(t, 0, d.FutureLen())
}

func TestDispatch_ReducerErrorLeavesEverythingUntouched(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeService{})

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "a"}))
	before := d.State()
	depth := d.PastLen()

	err := d.Dispatch(command.CreateTask{ID: "a", Title: "again"})
	require.ErrorIs(t, err, task.ErrDuplicateID)

	assert.Empty(t, cmp.Diff(before, d.State()))
	assert.Equal(t, depth, d.PastLen())
}

func TestDispatch_UndoEmptyIsSignaledNotFatal(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeService{})

	require.ErrorIs(t, d.Undo(), history.ErrNothingToUndo)
	require.ErrorIs(t, d.Redo(), history.ErrNothingToRedo)
}

func TestDispatch_Closed(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeService{})
	d.Close()

	assert.ErrorIs(t, d.Dispatch(command.SetTheme{Name: "dark"}), ErrClosed)
	assert.ErrorIs(t, d.Undo(), ErrClosed)
	assert.ErrorIs(t, d.Redo(), ErrClosed)

	_, err := d.DispatchOptimistic(context.Background(), command.DeleteTask{ID: "a"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatch_PublishesMutationEvents(t *testing.T) {
	d, tb := newTestDispatcher(t, &fakeService{})

	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "a"}))
	tb.AssertPublished(t, eventbus.EventTaskCreated)

	require.NoError(t, d.Dispatch(command.DeleteTask{ID: "a"}))
	tb.AssertPublished(t, eventbus.EventTaskDeleted)

	require.NoError(t, d.Undo())
	tb.AssertPublished(t, eventbus.EventHistoryUndone)

	require.NoError(t, d.Redo())
	tb.AssertPublished(t, eventbus.EventHistoryRedone)
}

func TestState_ReturnsIsolatedSnapshot(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeService{})
	require.NoError(t, d.Dispatch(command.CreateTask{ID: "a", Title: "a"}))

	snap := d.State()
	snap.Tasks.ByID["a"] = task.Task{ID: "a", Title: "mutated"}

	cur, _ := d.State().Get("a")
	assert.Equal(t, "a", cur.Title)
}
