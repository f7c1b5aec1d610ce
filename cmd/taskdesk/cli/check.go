package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deepnoodle-ai/taskdesk/config"
	"github.com/deepnoodle-ai/wonton/cli"
)

const checkTimeout = 30 * time.Second

type check struct {
	name string
	run  func(ctx context.Context) error
}

func registerCheckCommand(app *cli.App) {
	app.Command("check").
		Description("Verify Slack, Clockify and every client spreadsheet are reachable").
		Run(func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx, true)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			printConfig(os.Stdout, cfg.Redacted())
			goCtx, cancel := context.WithTimeout(context.Background(), checkTimeout)
			defer cancel()

			svc, err := buildServices(goCtx, cfg)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			checks := []check{
				{name: "Slack bot token", run: svc.slack.VerifyAccess},
				{name: "Clockify workspace " + cfg.Clockify.WorkspaceID, run: svc.clockify.VerifyAccess},
			}
			for _, c := range svc.registry.All() {
				c := c
				checks = append(checks, check{
					name: fmt.Sprintf("Spreadsheet for %s", c.DisplayName),
					run:  func(ctx context.Context) error { return svc.sheets.Verify(ctx, c.LedgerID) },
				})
			}
			if failed := runChecks(goCtx, os.Stdout, checks); failed > 0 {
				return cli.Errorf("%d of %d checks failed", failed, len(checks))
			}
			return nil
		})
}

// runChecks runs every check and reports how many failed.
func runChecks(ctx context.Context, w io.Writer, checks []check) int {
	failed := 0
	for _, c := range checks {
		if err := c.run(ctx); err != nil {
			failed++
			errorStyle.Fprintf(w, "%s %s: %v\n", xmark, c.name, err)
			continue
		}
		successStyle.Fprintf(w, "%s %s\n", checkmark, c.name)
	}
	return failed
}

// printConfig writes the effective settings. Secrets must already be
// masked.
func printConfig(w io.Writer, cfg config.Config) {
	rows := [][2]string{
		{"environment", cfg.Environment},
		{"port", fmt.Sprint(cfg.Port)},
		{"clients file", cfg.ClientsFile},
		{"sheet", cfg.Google.SheetName},
		{"service account", cfg.Google.ServiceAccountEmail},
		{"private key", cfg.Google.PrivateKey},
		{"slack bot token", cfg.Slack.BotToken},
		{"slack signing secret", cfg.Slack.SigningSecret},
		{"clockify api", cfg.Clockify.BaseURL},
		{"clockify api key", cfg.Clockify.APIKey},
		{"clockify workspace", cfg.Clockify.WorkspaceID},
		{"clockify attempts", fmt.Sprint(cfg.Clockify.MaxAttempts)},
		{"clockify retry delay", durationString(cfg.Clockify.RetryDelay)},
		{"clockify timeout", durationString(cfg.Clockify.Timeout)},
		{"confirmation delay", durationString(cfg.Workflow.ConfirmationDelay)},
		{"tasks at a time", fmt.Sprint(cfg.Workflow.TasksAtATime)},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-22s %s\n", row[0], row[1])
	}
	fmt.Fprintln(w)
}

func durationString(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
