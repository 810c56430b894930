package deck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/eventbus/testbus"
	"github.com/taskdeck/taskdeck/internal/data/db"
	"github.com/taskdeck/taskdeck/internal/data/stores"
)

func newTestFailureLog(t *testing.T, ttl time.Duration) *FailureLog {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return NewFailureLog(stores.NewKVStore(database), ttl, zerolog.Nop())
}

func TestFailureLog_RecordAndList(t *testing.T) {
	flog := newTestFailureLog(t, time.Hour)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{"create_task", "update_task", "delete_task"} {
		err := flog.Record(ctx, FailureRecord{
			Kind:  kind,
			Error: "rejected",
			At:    base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	records, err := flog.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Oldest first.
	assert.Equal(t, "create_task", records[0].Kind)
	assert.Equal(t, "delete_task", records[2].Kind)
}

func TestFailureLog_ExpiredRecordsDropOut(t *testing.T) {
	flog := newTestFailureLog(t, time.Millisecond)
	ctx := context.Background()

	err := flog.Record(ctx, FailureRecord{Kind: "create_task", Error: "rejected", At: time.Now()})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	records, err := flog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFailureLog_RecordsBusFailures(t *testing.T) {
	flog := newTestFailureLog(t, time.Hour)
	tb := testbus.New(t)
	flog.Register(tb.EventBus)

	cmd := command.DeleteTask{ID: "task_9"}
	tb.PublishOptimisticFailed(eventbus.OptimisticFailedPayload{
		Command: cmd,
		Err:     &OptimisticError{Command: cmd, Cause: errors.New("rejected")},
	})

	assert.Eventually(t, func() bool {
		records, err := flog.List(context.Background())
		return err == nil && len(records) == 1
	}, time.Second, 10*time.Millisecond)

	records, err := flog.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "delete_task", records[0].Kind)
	assert.Equal(t, "task_9", string(records[0].EntityID))
}
