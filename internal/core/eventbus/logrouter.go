package eventbus

import (
	"github.com/rs/zerolog"
)

// LogRouter maps domain events to log output. It is the headless
// equivalent of a UI error channel: optimistic rollbacks surface here
// even when no command is waiting on the settlement.
type LogRouter struct {
	bus *EventBus
	log zerolog.Logger
}

// NewLogRouter constructs a router for event-to-log mappings.
func NewLogRouter(bus *EventBus, log zerolog.Logger) *LogRouter {
	return &LogRouter{bus: bus, log: log.With().Str("component", "eventlog").Logger()}
}

// Register subscribes all supported event mappings.
func (r *LogRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeTaskCreated(func(p TaskCreatedPayload) {
		r.log.Info().Str("task", string(p.Task.ID)).Msg("task created")
	})

	r.bus.SubscribeTaskDeleted(func(p TaskDeletedPayload) {
		r.log.Info().Str("task", string(p.ID)).Msg("task deleted")
	})

	r.bus.SubscribeHistoryUndone(func(p HistoryUndonePayload) {
		r.log.Info().Int("past", p.PastLen).Int("future", p.FutureLen).Msg("undo applied")
	})

	r.bus.SubscribeHistoryRedone(func(p HistoryRedonePayload) {
		r.log.Info().Int("past", p.PastLen).Int("future", p.FutureLen).Msg("redo applied")
	})

	r.bus.SubscribeOptimisticCommitted(func(p OptimisticCommittedPayload) {
		r.log.Debug().
			Str("kind", string(p.Kind)).
			Str("temp_id", string(p.TempID)).
			Str("final_id", string(p.FinalID)).
			Msg("optimistic mutation committed")
	})

	r.bus.SubscribeOptimisticFailed(func(p OptimisticFailedPayload) {
		r.log.Warn().
			Str("kind", string(p.Command.Kind())).
			Err(p.Err).
			Msg("optimistic mutation rolled back")
	})
}
