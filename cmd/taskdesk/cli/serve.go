package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/deepnoodle-ai/taskdesk/chat"
	"github.com/deepnoodle-ai/taskdesk/clockify"
	"github.com/deepnoodle-ai/taskdesk/config"
	"github.com/deepnoodle-ai/taskdesk/ledger"
	"github.com/deepnoodle-ai/taskdesk/log"
	"github.com/deepnoodle-ai/taskdesk/retry"
	"github.com/deepnoodle-ai/taskdesk/server"
	"github.com/deepnoodle-ai/taskdesk/signature"
	"github.com/deepnoodle-ai/taskdesk/tenant"
	"github.com/deepnoodle-ai/taskdesk/workflow"
	"github.com/deepnoodle-ai/wonton/cli"
	"google.golang.org/api/option"
)

// drainMargin covers the Slack and Sheets calls around the Clockify step.
const drainMargin = 30 * time.Second

func registerServeCommand(app *cli.App) {
	app.Command("serve").
		Description("Serve Slack slash commands and interactions").
		Flags(
			cli.Int("port", "p").
				Help("Port to listen on; overrides PORT"),
		).
		Run(func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx, true)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if port := ctx.Int("port"); port != 0 {
				cfg.Port = port
			}
			return serve(cfg)
		})
}

// services holds the adapters built from the configuration.
type services struct {
	registry *tenant.Registry
	slack    *chat.Slack
	sheets   *ledger.Sheets
	clockify *clockify.Client
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	registry, err := tenant.LoadFile(cfg.ClientsFile)
	if err != nil {
		return nil, err
	}
	var slackOpts []chat.Option
	if cfg.Slack.APIURL != "" {
		slackOpts = append(slackOpts, chat.WithAPIURL(cfg.Slack.APIURL))
	}
	slackClient, err := chat.NewSlack(cfg.Slack.BotToken, slackOpts...)
	if err != nil {
		return nil, err
	}
	sheets, err := ledger.NewSheets(ctx,
		[]option.ClientOption{ledger.ServiceAccount(ctx, cfg.Google.ServiceAccountEmail, cfg.Google.PrivateKey)},
		ledger.WithSheetName(cfg.Google.SheetName))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	tasks, err := clockify.New(
		clockify.WithAPIKey(cfg.Clockify.APIKey),
		clockify.WithWorkspaceID(cfg.Clockify.WorkspaceID),
		clockify.WithBaseURL(cfg.Clockify.BaseURL),
		clockify.WithHTTPClient(&http.Client{Timeout: *cfg.Clockify.Timeout}),
	)
	if err != nil {
		return nil, err
	}
	return &services{registry: registry, slack: slackClient, sheets: sheets, clockify: tasks}, nil
}

func newRetryPolicy(cfg *config.Config, logger log.Logger) retry.Policy {
	return retry.NewPolicy(
		retry.WithMaxAttempts(cfg.Clockify.MaxAttempts),
		retry.WithDelay(*cfg.Clockify.RetryDelay),
		retry.WithClassifier(clockify.IsClientError),
		retry.WithOnFailure(func(attempt int, err error, permanent bool) {
			logger.Warn("clockify task creation attempt failed",
				"attempt", attempt,
				"max_attempts", cfg.Clockify.MaxAttempts,
				"permanent", permanent,
				"error", err)
		}),
	)
}

// drainTimeout bounds how long shutdown waits for in-flight sagas. A saga
// spends at most the confirmation delay plus the retry budget.
func drainTimeout(cfg *config.Config, policy retry.Policy) time.Duration {
	attempts := time.Duration(policy.MaxAttempts) * *cfg.Clockify.Timeout
	return *cfg.Workflow.ConfirmationDelay + policy.MaxWait() + attempts + drainMargin
}

func newOrchestrator(cfg *config.Config, svc *services, policy retry.Policy) (*workflow.Orchestrator, error) {
	confirmationDelay := *cfg.Workflow.ConfirmationDelay
	if confirmationDelay == 0 {
		confirmationDelay = -1
	}
	return workflow.NewOrchestrator(workflow.Options{
		Directory:         svc.slack,
		Messenger:         svc.slack,
		Ledger:            svc.sheets,
		Tasks:             svc.clockify,
		RetryPolicy:       policy,
		AttemptTimeout:    *cfg.Clockify.Timeout,
		ConfirmationDelay: confirmationDelay,
		Capacity:          cfg.Workflow.TasksAtATime,
	})
}

func serve(cfg *config.Config) error {
	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithLogger(ctx, logger)

	// Token refreshes must keep working while in-flight sagas drain.
	svc, err := buildServices(context.WithoutCancel(ctx), cfg)
	if err != nil {
		return cli.Errorf("%v", err)
	}
	policy := newRetryPolicy(cfg, logger)
	orchestrator, err := newOrchestrator(cfg, svc, policy)
	if err != nil {
		return cli.Errorf("%v", err)
	}
	handler, err := server.NewHandler(server.Options{
		Verifier:    signature.NewVerifier(cfg.Slack.SigningSecret),
		Registry:    svc.registry,
		Modals:      svc.slack,
		Saga:        orchestrator,
		Logger:      logger,
		Environment: cfg.Environment,
		Version:     Version,
	})
	if err != nil {
		return cli.Errorf("%v", err)
	}

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Address: ":" + strconv.Itoa(cfg.Port),
		Handler: handler,
		Logger:  logger,
	})
	done := make(chan error, 1)
	go func() { done <- httpServer.Serve(ctx) }()

	var serveErr error
	select {
	case <-httpServer.Ready():
		logger.Info("taskdesk started",
			"address", httpServer.Addr().String(),
			"environment", cfg.Environment,
			"clients", svc.registry.Len(),
			"sheet", svc.sheets.SheetName())
		serveErr = <-done
	case serveErr = <-done:
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout(cfg, policy))
	defer cancel()
	if err := handler.Wait(drainCtx); err != nil {
		logger.Error("in-flight submissions did not finish before shutdown", "error", err)
	}
	if serveErr != nil {
		return cli.Errorf("%v", serveErr)
	}
	return nil
}
