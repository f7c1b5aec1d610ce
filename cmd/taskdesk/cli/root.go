package cli

import (
	"fmt"
	"os"

	"github.com/deepnoodle-ai/taskdesk/config"
	"github.com/deepnoodle-ai/taskdesk/log"
	"github.com/deepnoodle-ai/wonton/cli"
)

// Version is reported by --version and the root endpoint.
var Version = "0.1.0"

var app *cli.App

func Execute() {
	app = cli.New("taskdesk").
		Description("taskdesk turns Slack task submissions into tracked work").
		Version(Version).
		GlobalFlags(
			cli.String("config", "c").
				Env("TASKDESK_CONFIG").
				Help("Optional YAML or JSON config file; environment variables override it"),
			cli.String("log-level", "").
				Help("Log level (debug, info, warn, error); overrides LOG_LEVEL"),
		)

	registerServeCommand(app)
	registerClientsCommand(app)
	registerCheckCommand(app)
	registerSignCommand(app)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// loadConfig reads and validates the configuration named by the global
// flags.
func loadConfig(ctx *cli.Context, validate bool) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if level := ctx.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) log.Logger {
	level := log.LevelFromString(cfg.LogLevel)
	log.SetDefaultLevel(level)
	return log.NewWithOptions(log.Options{
		Level:  level,
		Format: log.FormatFromString(cfg.LogFormat),
	})
}
