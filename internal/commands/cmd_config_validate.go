package commands

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/chirp/internal/core/config"
	"github.com/colonyops/chirp/internal/printer"
	"github.com/colonyops/chirp/pkg/iojson"
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
				UsageText:   "chirp config validate [options]",
				Description: "Loads the configuration file and reports every invalid field.",
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

type validationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type validationResult struct {
	Path   string            `json:"path"`
	Valid  bool              `json:"valid"`
	Errors []validationIssue `json:"errors,omitempty"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	result := cmd.validate()

	if cmd.format == "json" {
		if err := iojson.WriteIndent(c.Root().Writer, result); err != nil {
			return err
		}
		if !result.Valid {
			return cli.Exit("", 1)
		}
		return nil
	}

	return cmd.outputText(printer.Ctx(ctx), result)
}

func (cmd *ConfigValidateCmd) validate() validationResult {
	result := validationResult{Path: cmd.flags.ConfigPath, Valid: true}

	_, err := config.Load(cmd.flags.ConfigPath)
	if err == nil {
		return result
	}

	result.Valid = false

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		result.Errors = append(result.Errors, validationIssue{Message: err.Error()})
		return result
	}

	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, validationIssue{
			Field:   fe.Field,
			Message: fe.Err.Error(),
		})
	}

	return result
}

func (cmd *ConfigValidateCmd) outputText(p *printer.Printer, result validationResult) error {
	for _, issue := range result.Errors {
		if issue.Field == "" {
			p.Errorf("%s", issue.Message)
			continue
		}
		p.Errorf("%s: %s", issue.Field, issue.Message)
	}

	if result.Valid {
		p.Successf("Configuration is valid: %s", result.Path)
		return nil
	}

	p.Printf("")
	p.Errorf("%d error(s) found", len(result.Errors))
	return cli.Exit("", 1)
}
