package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/config"
	"github.com/taskdeck/taskdeck/internal/core/task"
	"github.com/taskdeck/taskdeck/pkg/iojson"
)

type ViewCmd struct {
	flags *Flags
}

// NewViewCmd creates the view command group.
func NewViewCmd(flags *Flags) *ViewCmd {
	return &ViewCmd{flags: flags}
}

// Register adds the view commands to the application.
func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "view",
		Usage: "Change the task list view",
		Commands: []*cli.Command{
			{
				Name:      "filter",
				Usage:     "Set the status filter (no argument clears it)",
				UsageText: "taskdeck view filter [status]",
				Description: `Sets the status filter applied by "task list". The change is
undoable like any other action.

Examples:
  taskdeck view filter pending
  taskdeck view filter`,
				Action: cmd.runFilter,
			},
			{
				Name:      "theme",
				Usage:     "Set the display theme",
				UsageText: "taskdeck view theme <name>",
				Action:    cmd.runTheme,
			},
			{
				Name:      "show",
				Usage:     "Show the current view settings",
				UsageText: "taskdeck view show",
				Action:    cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *ViewCmd) runFilter(ctx context.Context, c *cli.Command) error {
	status := task.Status(c.Args().Get(0))
	if status != "" && !status.IsValid() {
		return fmt.Errorf("invalid status %q: must be one of pending, in-progress, completed, cancelled", status)
	}

	if err := cmd.flags.App.Dispatcher.Dispatch(command.SetFilter{Status: status}); err != nil {
		return fmt.Errorf("set filter: %w", err)
	}

	return cmd.runShow(ctx, c)
}

func (cmd *ViewCmd) runTheme(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: taskdeck view theme <name>")
	}

	name := c.Args().Get(0)
	if !config.IsKnownTheme(name) {
		return fmt.Errorf("unknown theme %q", name)
	}

	if err := cmd.flags.App.Dispatcher.Dispatch(command.SetTheme{Name: name}); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}

	return cmd.runShow(ctx, c)
}

func (cmd *ViewCmd) runShow(ctx context.Context, c *cli.Command) error {
	view := cmd.flags.App.Dispatcher.State().View
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, view)
}
