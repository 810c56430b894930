package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/taskdeck/taskdeck/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "taskdeck config validate [options]",
				Description: "Validates the configuration file, checking field values and filesystem paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)

	if cmd.format == "json" {
		return cmd.outputJSON(c, err)
	}

	return cmd.outputText(c, err)
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, err error) error {
	out := struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors,omitempty"`
	}{Valid: err == nil}

	var fieldErrs criterio.FieldErrors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", fe.Field, fe.Err))
		}
	default:
		out.Errors = append(out.Errors, err.Error())
	}

	if werr := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); werr != nil {
		return werr
	}
	if err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(c *cli.Command, err error) error {
	w := c.Root().Writer

	if err == nil {
		_, _ = fmt.Fprintln(w, "configuration is valid")
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			_, _ = fmt.Fprintf(w, "error: %s: %s\n", fe.Field, fe.Err)
		}
		_, _ = fmt.Fprintf(w, "%d error(s) found\n", len(fieldErrs))
	} else {
		_, _ = fmt.Fprintf(w, "error: %s\n", err.Error())
	}

	return cli.Exit("", 1)
}
