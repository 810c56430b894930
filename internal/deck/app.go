package deck

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/core/config"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/core/history"
	"github.com/taskdeck/taskdeck/internal/data/snapshot"
	"github.com/taskdeck/taskdeck/internal/data/stores"
)

// App bundles the wired application components for the CLI commands.
type App struct {
	Config     *config.Config
	Dispatcher *Dispatcher
	Tasks      *stores.TaskStore
	Bus        *eventbus.EventBus
	Failures   *FailureLog
	Snapshots  *snapshot.Store
}

// NewApp creates the application container.
func NewApp(
	cfg *config.Config,
	dispatcher *Dispatcher,
	tasks *stores.TaskStore,
	bus *eventbus.EventBus,
	failures *FailureLog,
	snapshots *snapshot.Store,
) *App {
	return &App{
		Config:     cfg,
		Dispatcher: dispatcher,
		Tasks:      tasks,
		Bus:        bus,
		Failures:   failures,
		Snapshots:  snapshots,
	}
}

// LoadDispatcher restores the dispatcher from the persisted snapshot,
// or starts fresh when none exists.
func LoadDispatcher(snapshots *snapshot.Store, cfg *config.Config, svc *stores.TaskStore, bus *eventbus.EventBus, log zerolog.Logger) (*Dispatcher, error) {
	file, err := snapshots.Load()
	if err != nil {
		return nil, fmt.Errorf("load state snapshot: %w", err)
	}

	hist := history.NewStack(cfg.History.MaxDepth)
	hist.Restore(file.Past, file.Future)

	return NewDispatcher(file.Current, hist, svc, bus, log), nil
}

// SaveSnapshot waits for in-flight confirmations to settle and persists
// the dispatcher's state and history.
func (a *App) SaveSnapshot() error {
	a.Dispatcher.Wait()

	current, past, future := a.Dispatcher.Snapshot()
	err := a.Snapshots.Save(snapshot.File{
		Current: current,
		Past:    past,
		Future:  future,
	})
	if err != nil {
		return fmt.Errorf("save state snapshot: %w", err)
	}
	return nil
}
