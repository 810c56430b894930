package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/task"
	"github.com/taskdeck/taskdeck/internal/deck"
)

// settleOptimistic dispatches cmd optimistically and blocks until the
// backend confirmation settles. It returns the final entity ID on
// commit, or the rejection cause after the dispatcher has rolled the
// mutation back.
//
// Subscriptions are registered before the dispatch so the settlement
// event cannot be missed, and filtered by entity ID afterwards.
func settleOptimistic(ctx context.Context, app *deck.App, cmd command.EntityCommand) (task.ID, error) {
	committed := make(chan eventbus.OptimisticCommittedPayload, 4)
	failed := make(chan eventbus.OptimisticFailedPayload, 4)

	app.Bus.SubscribeOptimisticCommitted(func(p eventbus.OptimisticCommittedPayload) {
		select {
		case committed <- p:
		default:
		}
	})
	app.Bus.SubscribeOptimisticFailed(func(p eventbus.OptimisticFailedPayload) {
		select {
		case failed <- p:
		default:
		}
	})

	id, err := app.Dispatcher.DispatchOptimistic(ctx, cmd)
	if err != nil {
		return "", err
	}

	timeout := app.Config.Sync.Timeout + time.Second
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case p := <-committed:
			if p.TempID == id || p.FinalID == id {
				return p.FinalID, nil
			}
		case p := <-failed:
			ec, ok := p.Command.(command.EntityCommand)
			if ok && ec.EntityID() == id {
				return "", p.Err
			}
		case <-deadline.C:
			return "", fmt.Errorf("confirmation did not settle within %s", timeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
