package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/deepnoodle-ai/taskdesk/log"
	"github.com/deepnoodle-ai/taskdesk/notify"
	"github.com/deepnoodle-ai/taskdesk/signature"
	"github.com/deepnoodle-ai/taskdesk/submission"
	"github.com/deepnoodle-ai/taskdesk/tenant"
	"github.com/deepnoodle-ai/taskdesk/workflow"
	"github.com/slack-go/slack"
)

const (
	PathCommands     = "/slack/commands"
	PathInteractions = "/slack/interactions"
	PathHealth       = "/health"

	// DefaultModalTimeout bounds the views.open call. Trigger ids expire
	// after three seconds, so a slow call is already a failed one.
	DefaultModalTimeout = 10 * time.Second
)

// ModalOpener opens a modal for a slash command's trigger.
type ModalOpener interface {
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}

// Saga runs a validated submission to completion.
type Saga interface {
	Run(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}

// Options configures a Handler.
type Options struct {
	Verifier    *signature.Verifier
	Registry    *tenant.Registry
	Modals      ModalOpener
	Saga        Saga
	Logger      log.Logger
	Environment string
	Version     string
	Now         func() time.Time
}

// Handler routes Slack callbacks and health checks. Sagas and modal opens
// run in the background after the request is acknowledged; Wait drains
// them.
type Handler struct {
	registry    *tenant.Registry
	modals      ModalOpener
	saga        Saga
	logger      log.Logger
	environment string
	version     string
	now         func() time.Time

	background dispatcher
	mux        http.Handler
}

// NewHandler validates opts and builds the route table.
func NewHandler(opts Options) (*Handler, error) {
	switch {
	case opts.Verifier == nil:
		return nil, errors.New("signature verifier required")
	case opts.Registry == nil:
		return nil, errors.New("tenant registry required")
	case opts.Modals == nil:
		return nil, errors.New("modal opener required")
	case opts.Saga == nil:
		return nil, errors.New("saga required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNullLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &Handler{
		registry:    opts.Registry,
		modals:      opts.Modals,
		saga:        opts.Saga,
		logger:      opts.Logger,
		environment: opts.Environment,
		version:     opts.Version,
		now:         opts.Now,
	}

	mux := http.NewServeMux()
	mux.Handle("POST "+PathCommands, opts.Verifier.Middleware(http.HandlerFunc(h.handleCommand)))
	mux.Handle("POST "+PathInteractions, opts.Verifier.Middleware(http.HandlerFunc(h.handleInteraction)))
	mux.HandleFunc("GET "+PathHealth, h.handleHealth)
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("/", h.handleNotFound)
	h.mux = withLogging(h.logger, withRecovery(mux))
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Wait blocks until every background saga and modal open has finished, or
// ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	return h.background.Wait(ctx)
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		logger.Warn("malformed slash command", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bad Request"})
		return
	}

	client, err := h.registry.Lookup(cmd.ChannelID)
	if err != nil {
		logger.Info("slash command from unconfigured channel",
			"command", cmd.Command, "channel_id", cmd.ChannelID, "user_id", cmd.UserID)
		writeJSON(w, http.StatusOK, &slack.Msg{
			ResponseType: slack.ResponseTypeEphemeral,
			Text:         notify.Unconfigured().Text,
		})
		return
	}

	w.WriteHeader(http.StatusOK)

	logger = logger.With("tenant", client.DisplayName, "user_id", cmd.UserID)
	ctx := log.WithLogger(r.Context(), logger)
	triggerID := cmd.TriggerID
	h.background.Go(ctx, "open modal", func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, DefaultModalTimeout)
		defer cancel()
		if err := h.modals.OpenModal(ctx, triggerID, submission.NewModal(client)); err != nil {
			log.Ctx(ctx).Error("failed to open submission modal", "error", err)
			return
		}
		log.Ctx(ctx).Info("submission modal opened")
	})
}

func (h *Handler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bad Request"})
		return
	}
	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &callback); err != nil {
		logger.Warn("malformed interaction payload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bad Request"})
		return
	}

	if callback.Type != slack.InteractionTypeViewSubmission || callback.View.CallbackID != submission.CallbackID {
		logger.Debug("ignoring interaction", "type", callback.Type, "callback_id", callback.View.CallbackID)
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	sub := submission.Extract(callback.View.State)
	if errs := submission.Validate(sub); len(errs) > 0 {
		logger.Info("submission failed validation",
			"user_id", callback.User.ID, "errors", submission.Messages(errs))
		writeJSON(w, http.StatusOK, slack.NewErrorsViewSubmissionResponse(submission.BlockErrors(errs)))
		return
	}

	metadata, err := submission.ParseMetadata(callback.View.PrivateMetadata)
	if err != nil {
		logger.Warn("submission without usable metadata", "user_id", callback.User.ID, "error", err)
		writeJSON(w, http.StatusOK, slack.NewErrorsViewSubmissionResponse(map[string]string{
			submission.BlockID(submission.FieldTitle): "This form has expired. Please run the command again.",
		}))
		return
	}
	client, err := h.registry.Lookup(metadata.ConversationID)
	if err != nil {
		logger.Warn("submission for unconfigured channel",
			"user_id", callback.User.ID, "channel_id", metadata.ConversationID)
		writeJSON(w, http.StatusOK, slack.NewErrorsViewSubmissionResponse(map[string]string{
			submission.BlockID(submission.FieldTitle): notify.Unconfigured().Text,
		}))
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})

	req := workflow.Request{
		Submission:     sub,
		Client:         client,
		SubmitterID:    callback.User.ID,
		ConversationID: metadata.ConversationID,
	}
	h.background.Go(r.Context(), "submission saga", func(ctx context.Context) {
		result, err := h.saga.Run(ctx, req)
		if err != nil {
			log.Ctx(ctx).Error("task submission failed",
				"tenant", client.DisplayName,
				"title", sub.Title,
				"submitter", req.SubmitterID,
				"error", err)
			return
		}
		log.Ctx(ctx).Info("task submission completed",
			"tenant", client.DisplayName,
			"task_id", result.TaskID,
			"ledger_row", result.LedgerRow)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.environment,
	})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "taskdesk is running",
		"version": h.version,
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
