package deck

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/kv"
	"github.com/taskdeck/taskdeck/internal/core/task"
	"github.com/taskdeck/taskdeck/pkg/randid"
)

// FailureRecord is one rolled-back optimistic mutation, kept in the KV
// store with a TTL so later CLI runs can still report it.
type FailureRecord struct {
	Kind     string    `json:"kind"`
	EntityID task.ID   `json:"entity_id,omitempty"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// FailureLog records optimistic rollbacks across runs.
type FailureLog struct {
	store *kv.TypedKV[FailureRecord]
	ttl   time.Duration
	log   zerolog.Logger
}

// NewFailureLog creates a failure log on top of a KV store.
func NewFailureLog(store kv.KV, ttl time.Duration, log zerolog.Logger) *FailureLog {
	return &FailureLog{
		store: kv.Scoped[FailureRecord](store, "failures"),
		ttl:   ttl,
		log:   log.With().Str("component", "failure-log").Logger(),
	}
}

// Register subscribes the log to optimistic.failed events on the bus.
func (f *FailureLog) Register(bus *eventbus.EventBus) {
	bus.SubscribeOptimisticFailed(func(p eventbus.OptimisticFailedPayload) {
		rec := FailureRecord{
			Kind:  string(p.Command.Kind()),
			Error: p.Err.Error(),
			At:    time.Now(),
		}
		if ec, ok := p.Command.(interface{ EntityID() task.ID }); ok {
			rec.EntityID = ec.EntityID()
		}

		if err := f.Record(context.Background(), rec); err != nil {
			f.log.Error().Err(err).Msg("failed to record optimistic failure")
		}
	})
}

// Record persists one failure record with the configured TTL.
func (f *FailureLog) Record(ctx context.Context, rec FailureRecord) error {
	key := fmt.Sprintf("%d_%s", rec.At.UnixNano(), randid.Generate(4))
	if err := f.store.SetTTL(ctx, key, rec, f.ttl); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// List returns all unexpired failure records, oldest first.
func (f *FailureLog) List(ctx context.Context) ([]FailureRecord, error) {
	keys, err := f.store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	sort.Strings(keys)

	out := make([]FailureRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := f.store.Get(ctx, key)
		if err != nil {
			// Entry may have expired between list and get.
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
