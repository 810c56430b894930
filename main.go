package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/taskdeck/taskdeck/internal/commands"
	"github.com/taskdeck/taskdeck/internal/core/config"
	"github.com/taskdeck/taskdeck/internal/core/eventbus"
	"github.com/taskdeck/taskdeck/internal/data/db"
	"github.com/taskdeck/taskdeck/internal/data/snapshot"
	"github.com/taskdeck/taskdeck/internal/data/stores"
	"github.com/taskdeck/taskdeck/internal/deck"
	"github.com/taskdeck/taskdeck/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		database  *db.DB
		busCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "taskdeck",
		Usage:     "Local-first task list with undo, redo, and optimistic confirmation",
		UsageText: "taskdeck [global options] command [command options]",
		Description: `Taskdeck keeps a local task list that applies every change
immediately and confirms it against a backing store in the
background. Confirmed history survives across runs, and any change
can be undone or redone.

Run 'taskdeck task create --title "..."' to add a task.
Run 'taskdeck undo' to revert the last change.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKDECK_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskdeck.log)",
				Sources:     cli.EnvVars("TASKDECK_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKDECK_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKDECK_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/taskdeck.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "taskdeck.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Open database connection
			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			database, err = db.Open(cfg.DataDir, dbOpts)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			// Create stores
			taskStore := stores.NewTaskStore(database)
			kvStore := stores.NewKVStore(database)

			// Expired KV entries are swept once per run; a single CLI
			// invocation is too short-lived for a background sweeper.
			if swept, err := kvStore.Sweep(ctx); err != nil {
				log.Warn().Err(err).Msg("kv sweep failed")
			} else if swept > 0 {
				log.Debug().Int64("count", swept).Msg("swept expired kv entries")
			}

			// Event bus: runs for the life of the process
			bus := eventbus.New(64)
			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			eventbus.NewLogRouter(bus, log.Logger).Register()
			if flags.LogLevel == "debug" {
				eventbus.RegisterDebugLogger(bus, log.Logger)
			}

			failures := deck.NewFailureLog(kvStore, cfg.Sync.FailureTTL, log.Logger)
			failures.Register(bus)

			snapshots := snapshot.NewStore(cfg.SnapshotFile())

			dispatcher, err := deck.LoadDispatcher(snapshots, cfg, taskStore, bus, log.Logger)
			if err != nil {
				return ctx, err
			}

			flags.App = deck.NewApp(cfg, dispatcher, taskStore, bus, failures, snapshots)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Persist state before tearing anything down; this waits for
			// in-flight confirmations to settle.
			if flags.App != nil {
				if err := flags.App.SaveSnapshot(); err != nil {
					log.Error().Err(err).Msg("failed to save snapshot")
					return err
				}
				flags.App.Dispatcher.Close()
			}

			// Stop the event bus
			if busCancel != nil {
				busCancel()
			}

			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewTaskCmd(flags).Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)
	app = commands.NewViewCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
