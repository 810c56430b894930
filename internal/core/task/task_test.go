package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_IsTemp(t *testing.T) {
	assert.True(t, ID("tmp_abc123").IsTemp())
	assert.False(t, ID("task_abc123").IsTemp())
	assert.False(t, ID("").IsTemp())
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := New("task_1", "Write docs", "outline first", now)

	assert.Equal(t, ID("task_1"), got.ID)
	assert.Equal(t, "Write docs", got.Title)
	assert.Equal(t, "outline first", got.Description)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, PriorityMedium, got.Priority)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)

	require.Len(t, got.History, 1)
	assert.Equal(t, ChangeKindCreated, got.History[0].Kind)
	assert.Equal(t, now, got.History[0].Timestamp)
}

func TestClone_Independent(t *testing.T) {
	now := time.Now()
	orig := New("task_1", "a", "", now)

	clone := orig.Clone()
	clone.Title = "b"
	clone.History = append(clone.History, ChangeEntry{Kind: ChangeKindUpdated, Timestamp: now})

	assert.Equal(t, "a", orig.Title)
	assert.Len(t, orig.History, 1)
	assert.Len(t, clone.History, 2)
}

func TestPatch_IsZero(t *testing.T) {
	assert.True(t, Patch{}.IsZero())

	title := "x"
	assert.False(t, Patch{Title: &title}.IsZero())
}

func TestPatch_Apply(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)

	base := New("task_1", "old title", "old desc", created)

	title := "new title"
	status := StatusInProgress
	got := Patch{Title: &title, Status: &status}.Apply(base, "alice", later)

	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Equal(t, "old desc", got.Description)
	assert.Equal(t, later, got.UpdatedAt)

	require.Len(t, got.History, 2)
	entry := got.History[1]
	assert.Equal(t, ChangeKindUpdated, entry.Kind)
	assert.Equal(t, "alice", entry.Actor)
	assert.Equal(t, FieldDelta{From: "old title", To: "new title"}, entry.Diff["title"])
	assert.Equal(t, FieldDelta{From: string(StatusPending), To: string(StatusInProgress)}, entry.Diff["status"])

	// Base is a value; the original must be untouched.
	assert.Equal(t, "old title", base.Title)
	assert.Len(t, base.History, 1)
}

func TestPatch_Apply_NoOpFieldsSkipped(t *testing.T) {
	created := time.Now()
	base := New("task_1", "same", "", created)

	same := "same"
	status := StatusCompleted
	got := Patch{Title: &same, Status: &status}.Apply(base, "", created.Add(time.Minute))

	require.Len(t, got.History, 2)
	diff := got.History[1].Diff
	assert.NotContains(t, diff, "title")
	assert.Contains(t, diff, "status")
}

func TestPatch_Apply_EmptyDiffLeavesTaskUnchanged(t *testing.T) {
	created := time.Now()
	base := New("task_1", "same", "", created)

	same := "same"
	got := Patch{Title: &same}.Apply(base, "", created.Add(time.Minute))

	assert.Equal(t, created, got.UpdatedAt)
	assert.Len(t, got.History, 1)
}

func TestPatch_Apply_TimestampsNeverGoBackwards(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := New("task_1", "a", "", created)

	title := "b"
	earlier := created.Add(-time.Hour)
	got := Patch{Title: &title}.Apply(base, "", earlier)

	require.Len(t, got.History, 2)
	assert.False(t, got.History[1].Timestamp.Before(got.History[0].Timestamp))
}
