package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/taskdeck/taskdeck/internal/core/history"
	"github.com/taskdeck/taskdeck/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags

	showFailures bool
}

// NewHistoryCmd creates the undo, redo, and history commands.
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history commands to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "undo",
			Usage:     "Revert the most recent change",
			UsageText: "taskdeck undo",
			Action:    cmd.runUndo,
		},
		&cli.Command{
			Name:      "redo",
			Usage:     "Re-apply the most recently undone change",
			UsageText: "taskdeck redo",
			Action:    cmd.runRedo,
		},
		&cli.Command{
			Name:      "history",
			Usage:     "Show undo/redo depth and recent rejected mutations",
			UsageText: "taskdeck history [--failures]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "failures",
					Usage:       "include recently rejected mutations",
					Destination: &cmd.showFailures,
				},
			},
			Action: cmd.runHistory,
		},
	)

	return app
}

type historyStatus struct {
	PastLen   int  `json:"past_len"`
	FutureLen int  `json:"future_len"`
	CanUndo   bool `json:"can_undo"`
	CanRedo   bool `json:"can_redo"`
}

func (cmd *HistoryCmd) status() historyStatus {
	d := cmd.flags.App.Dispatcher
	return historyStatus{
		PastLen:   d.PastLen(),
		FutureLen: d.FutureLen(),
		CanUndo:   d.CanUndo(),
		CanRedo:   d.CanRedo(),
	}
}

func (cmd *HistoryCmd) runUndo(ctx context.Context, c *cli.Command) error {
	err := cmd.flags.App.Dispatcher.Undo()
	if errors.Is(err, history.ErrNothingToUndo) {
		_, _ = fmt.Fprintln(c.Root().Writer, "nothing to undo")
		return nil
	}
	if err != nil {
		return fmt.Errorf("undo: %w", err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, cmd.status())
}

func (cmd *HistoryCmd) runRedo(ctx context.Context, c *cli.Command) error {
	err := cmd.flags.App.Dispatcher.Redo()
	if errors.Is(err, history.ErrNothingToRedo) {
		_, _ = fmt.Fprintln(c.Root().Writer, "nothing to redo")
		return nil
	}
	if err != nil {
		return fmt.Errorf("redo: %w", err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, cmd.status())
}

func (cmd *HistoryCmd) runHistory(ctx context.Context, c *cli.Command) error {
	out := struct {
		historyStatus
		MaxDepth int                 `json:"max_depth"`
		Failures []deckFailureRecord `json:"failures,omitempty"`
	}{
		historyStatus: cmd.status(),
		MaxDepth:      cmd.flags.App.Config.History.MaxDepth,
	}

	if cmd.showFailures {
		records, err := cmd.flags.App.Failures.List(ctx)
		if err != nil {
			return fmt.Errorf("list failures: %w", err)
		}
		for _, rec := range records {
			out.Failures = append(out.Failures, deckFailureRecord{
				Kind:     rec.Kind,
				EntityID: string(rec.EntityID),
				Error:    rec.Error,
				At:       rec.At.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
}

type deckFailureRecord struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
	Error    string `json:"error"`
	At       string `json:"at"`
}
