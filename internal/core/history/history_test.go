package history

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/state"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// states returns n+1 snapshots: empty, then one more task per step.
func states(t *testing.T, n int) []state.State {
	t.Helper()

	out := []state.State{state.New()}
	for i := 0; i < n; i++ {
		next, err := state.Reduce(out[i], command.CreateTask{
			ID:    task.ID(rune('a' + i)),
			Title: "step",
		}, testNow)
		require.NoError(t, err)
		out = append(out, next)
	}
	return out
}

func TestStack_UndoRedoRoundTrip(t *testing.T) {
	snaps := states(t, 2)
	s := NewStack(DefaultMaxDepth)

	s.Record(snaps[0])
	s.Record(snaps[1])

	current := snaps[2]

	prev, err := s.Undo(current)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(snaps[1], prev))
	assert.Equal(t, 1, s.PastLen())
	assert.Equal(t, 1, s.FutureLen())

	next, err := s.Redo(prev)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(snaps[2], next))
	assert.Equal(t, 2, s.PastLen())
	assert.Equal(t, 0, s.FutureLen())
}

func TestStack_UndoEmpty(t *testing.T) {
	s := NewStack(DefaultMaxDepth)

	_, err := s.Undo(state.New())
	require.ErrorIs(t, err, ErrNothingToUndo)
	assert.False(t, s.CanUndo())
}

func TestStack_RedoEmpty(t *testing.T) {
	s := NewStack(DefaultMaxDepth)

	_, err := s.Redo(state.New())
	require.ErrorIs(t, err, ErrNothingToRedo)
	assert.False(t, s.CanRedo())
}

func TestStack_RecordClearsFuture(t *testing.T) {
	snaps := states(t, 2)
	s := NewStack(DefaultMaxDepth)

	s.Record(snaps[0])
	s.Record(snaps[1])

	_, err := s.Undo(snaps[2])
	require.NoError(t, err)
	require.Equal(t, 1, s.FutureLen())

	s.Record(snaps[1])
	assert.Equal(t, 0, s.FutureLen())
	assert.False(t, s.CanRedo())
}

func TestStack_DepthBoundDropsOldest(t *testing.T) {
	snaps := states(t, 3)
	s := NewStack(2)

	s.Record(snaps[0])
	s.Record(snaps[1])
	s.Record(snaps[2])

	require.Equal(t, 2, s.PastLen())

	// Two undos rewind to snaps[1]; the oldest snapshot fell off.
	prev, err := s.Undo(snaps[3])
	require.NoError(t, err)
	prev, err = s.Undo(prev)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(snaps[1], prev))

	_, err = s.Undo(prev)
	require.ErrorIs(t, err, ErrNothingToUndo)
}

func TestStack_RecordedSnapshotsDoNotAlias(t *testing.T) {
	snaps := states(t, 1)
	s := NewStack(DefaultMaxDepth)

	live := snaps[1]
	s.Record(live)
	live.Tasks.ByID["a"] = task.Task{ID: "a", Title: "mutated"}

	prev, err := s.Undo(snaps[1])
	require.NoError(t, err)
	assert.Equal(t, "step", prev.Tasks.ByID["a"].Title)
}

func TestStack_SnapshotRestore(t *testing.T) {
	snaps := states(t, 2)
	s := NewStack(DefaultMaxDepth)
	s.Record(snaps[0])
	s.Record(snaps[1])
	_, err := s.Undo(snaps[2])
	require.NoError(t, err)

	past, future := s.Snapshot()
	require.Len(t, past, 1)
	require.Len(t, future, 1)

	restored := NewStack(DefaultMaxDepth)
	restored.Restore(past, future)
	assert.Equal(t, 1, restored.PastLen())
	assert.Equal(t, 1, restored.FutureLen())
	assert.True(t, restored.CanUndo())
	assert.True(t, restored.CanRedo())
}

func TestStack_RestoreReappliesBound(t *testing.T) {
	snaps := states(t, 3)

	restored := NewStack(2)
	restored.Restore([]state.State{snaps[0], snaps[1], snaps[2]}, nil)
	assert.Equal(t, 2, restored.PastLen())
}
