package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/taskdeck/taskdeck/internal/core/command"
	"github.com/taskdeck/taskdeck/internal/core/task"
	"github.com/taskdeck/taskdeck/internal/data/stores"
	"github.com/taskdeck/taskdeck/pkg/iojson"
)

type createInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
}

type TaskCmd struct {
	flags *Flags

	createTitle       string
	createDescription string
	createPriority    string
	createReader      iojson.FileReader[createInput]
	createFromFile    bool

	listStatus   string
	listPriority string
	listRemote   bool

	updateTitle       string
	updateDescription string
	updateStatus      string
	updatePriority    string
}

// NewTaskCmd creates a new task command group.
func NewTaskCmd(flags *Flags) *TaskCmd {
	return &TaskCmd{flags: flags}
}

// Register adds the task commands to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Create, inspect, and mutate tasks",
		Commands: []*cli.Command{
			cmd.createCmd(),
			cmd.listCmd(),
			cmd.getCmd(),
			cmd.updateCmd(),
			cmd.completeCmd(),
			cmd.deleteCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a task",
		UsageText: "taskdeck task create --title <title> [--description <desc>] [--priority <p>]",
		Description: `Creates a task. The task appears immediately under a temporary ID,
is confirmed against the local store, and is reported with its final
ID once the confirmation settles.

Examples:
  taskdeck task create --title "Ship the release"
  taskdeck task create -t "Triage bugs" -p high
  echo '{"title":"From a pipe"}' | taskdeck task create --from-file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "title for the task",
				Destination: &cmd.createTitle,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "optional description",
				Destination: &cmd.createDescription,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "priority (low, medium, high)",
				Destination: &cmd.createPriority,
			},
			&cli.BoolFlag{
				Name:        "from-file",
				Usage:       "read the task as JSON from --file or stdin",
				Destination: &cmd.createFromFile,
			},
			cmd.createReader.Flag(),
		},
		Action: cmd.runCreate,
	}
}

func (cmd *TaskCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List tasks",
		UsageText: "taskdeck task list [--status <status>] [--priority <p>] [--remote]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "filter by status (pending, in-progress, completed, cancelled)",
				Destination: &cmd.listStatus,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "filter by priority, remote listing only (low, medium, high)",
				Destination: &cmd.listPriority,
			},
			&cli.BoolFlag{
				Name:        "remote",
				Usage:       "list from the confirmation store instead of local state",
				Destination: &cmd.listRemote,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *TaskCmd) getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a single task",
		UsageText: "taskdeck task get <id>",
		Action:    cmd.runGet,
	}
}

func (cmd *TaskCmd) updateCmd() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields on a task",
		UsageText: "taskdeck task update <id> [--title <t>] [--description <d>] [--status <s>] [--priority <p>]",
		Description: `Applies a partial update. Only the flags you pass change; omitted
fields keep their current values. The change is applied immediately
and rolled back if the confirmation is rejected.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "new title",
				Destination: &cmd.updateTitle,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "new description",
				Destination: &cmd.updateDescription,
			},
			&cli.StringFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "new status (pending, in-progress, completed, cancelled)",
				Destination: &cmd.updateStatus,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "new priority (low, medium, high)",
				Destination: &cmd.updatePriority,
			},
		},
		Action: cmd.runUpdate,
	}
}

func (cmd *TaskCmd) completeCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Mark a task completed",
		UsageText: "taskdeck task complete <id>",
		Action:    cmd.runComplete,
	}
}

func (cmd *TaskCmd) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a task",
		UsageText: "taskdeck task delete <id>",
		Action:    cmd.runDelete,
	}
}

func (cmd *TaskCmd) runCreate(ctx context.Context, c *cli.Command) error {
	input := createInput{
		Title:       cmd.createTitle,
		Description: cmd.createDescription,
		Priority:    task.Priority(cmd.createPriority),
	}

	if cmd.createFromFile {
		read, err := cmd.createReader.Read()
		if err != nil {
			return fmt.Errorf("read task input: %w", err)
		}
		input = read
	}

	if input.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return fmt.Errorf("invalid priority %q: must be one of low, medium, high", input.Priority)
	}

	app := cmd.flags.App
	finalID, err := settleOptimistic(ctx, app, command.CreateTask{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	created, ok := app.Dispatcher.State().Get(finalID)
	if !ok {
		// Undone while the confirmation was in flight; the store still
		// holds the confirmed row.
		log.Debug().Str("id", string(finalID)).Msg("task: created entity absent from local state")
		return iojson.Write(map[string]any{"id": finalID, "confirmed": true})
	}

	return iojson.Write(created)
}

func (cmd *TaskCmd) runList(ctx context.Context, c *cli.Command) error {
	status := task.Status(cmd.listStatus)
	if status != "" && !status.IsValid() {
		return fmt.Errorf("invalid status %q: must be one of pending, in-progress, completed, cancelled", cmd.listStatus)
	}

	app := cmd.flags.App

	if cmd.listRemote {
		priority := task.Priority(cmd.listPriority)
		if priority != "" && !priority.IsValid() {
			return fmt.Errorf("invalid priority %q: must be one of low, medium, high", cmd.listPriority)
		}

		items, err := app.Tasks.List(ctx, stores.ListFilter{Status: status, Priority: priority})
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return writeTasks(c, items)
	}

	st := app.Dispatcher.State()
	if !c.IsSet("status") {
		status = st.View.Filter
	}

	return writeTasks(c, st.List(status))
}

func writeTasks(c *cli.Command, items []task.Task) error {
	for _, item := range items {
		if err := iojson.WriteLine(c.Root().Writer, item); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *TaskCmd) runGet(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: taskdeck task get <id>")
	}

	id := task.ID(c.Args().Get(0))
	app := cmd.flags.App

	t, ok := app.Dispatcher.State().Get(id)
	if !ok {
		// Fall back to the confirmation store so confirmed-but-undone
		// tasks are still inspectable.
		remote, err := app.Tasks.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get task %s: %w", id, err)
		}
		t = remote
	}

	return iojson.Write(t)
}

func (cmd *TaskCmd) runUpdate(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: taskdeck task update <id> [flags]")
	}

	patch, err := cmd.buildPatch(c)
	if err != nil {
		return err
	}
	if patch.IsZero() {
		return fmt.Errorf("nothing to update: pass at least one of --title, --description, --status, --priority")
	}

	return cmd.applyUpdate(ctx, task.ID(c.Args().Get(0)), patch)
}

func (cmd *TaskCmd) runComplete(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: taskdeck task complete <id>")
	}

	status := task.StatusCompleted
	return cmd.applyUpdate(ctx, task.ID(c.Args().Get(0)), task.Patch{Status: &status})
}

func (cmd *TaskCmd) applyUpdate(ctx context.Context, id task.ID, patch task.Patch) error {
	app := cmd.flags.App

	if _, ok := app.Dispatcher.State().Get(id); !ok {
		return fmt.Errorf("update task: %w: %s", task.ErrNotFound, id)
	}

	finalID, err := settleOptimistic(ctx, app, command.UpdateTask{
		ID:    id,
		Patch: patch,
		Actor: app.Config.Actor,
	})
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}

	updated, ok := app.Dispatcher.State().Get(finalID)
	if !ok {
		return iojson.Write(map[string]any{"id": finalID, "confirmed": true})
	}
	return iojson.Write(updated)
}

func (cmd *TaskCmd) buildPatch(c *cli.Command) (task.Patch, error) {
	var patch task.Patch

	if c.IsSet("title") {
		patch.Title = &cmd.updateTitle
	}
	if c.IsSet("description") {
		patch.Description = &cmd.updateDescription
	}
	if c.IsSet("status") {
		status := task.Status(cmd.updateStatus)
		if !status.IsValid() {
			return patch, fmt.Errorf("invalid status %q: must be one of pending, in-progress, completed, cancelled", cmd.updateStatus)
		}
		patch.Status = &status
	}
	if c.IsSet("priority") {
		priority := task.Priority(cmd.updatePriority)
		if !priority.IsValid() {
			return patch, fmt.Errorf("invalid priority %q: must be one of low, medium, high", cmd.updatePriority)
		}
		patch.Priority = &priority
	}

	return patch, nil
}

func (cmd *TaskCmd) runDelete(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: taskdeck task delete <id>")
	}

	id := task.ID(c.Args().Get(0))
	app := cmd.flags.App

	if _, ok := app.Dispatcher.State().Get(id); !ok {
		return fmt.Errorf("delete task: %w: %s", task.ErrNotFound, id)
	}

	if _, err := settleOptimistic(ctx, app, command.DeleteTask{ID: id}); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "deleted")
	return nil
}
