// Package workflow runs the submission saga: resolve the submitter, open a
// thread, append a ledger row, create the remote task under a retry policy,
// record its id in the ledger and confirm in the thread.
//
// Steps run strictly in order. Any failure moves the saga to StageFailed,
// sends the submitter a generic ephemeral notice and returns the error.
// Nothing already written is rolled back.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/taskdesk"
	"github.com/deepnoodle-ai/taskdesk/clockify"
	"github.com/deepnoodle-ai/taskdesk/log"
	"github.com/deepnoodle-ai/taskdesk/notify"
	"github.com/deepnoodle-ai/taskdesk/retry"
	"github.com/google/uuid"
)

const (
	DefaultAttemptTimeout    = 10 * time.Second
	DefaultConfirmationDelay = 15 * time.Second
	DefaultCapacity          = 3
)

// Options configures a new Orchestrator
type Options struct {
	Directory Directory
	Messenger Messenger
	Ledger    Ledger
	Tasks     TaskCreator

	// RetryPolicy governs remote task creation.
	RetryPolicy retry.Policy

	// AttemptTimeout bounds each task creation attempt.
	AttemptTimeout time.Duration

	// ConfirmationDelay is waited before the confirmation reply. Negative
	// disables it; zero uses the default.
	ConfirmationDelay time.Duration

	// Capacity is the number of tasks handled at a time, quoted in the
	// confirmation.
	Capacity int

	// OnTransition is called after every stage change with a copy of the
	// state.
	OnTransition func(State)

	Now   func() time.Time
	Sleep retry.SleepFunc
	NewID func() string
}

// Orchestrator runs submission sagas. It holds no per-submission state and
// is safe for concurrent use.
type Orchestrator struct {
	directory         Directory
	messenger         Messenger
	ledger            Ledger
	tasks             TaskCreator
	retryPolicy       retry.Policy
	attemptTimeout    time.Duration
	confirmationDelay time.Duration
	capacity          int
	onTransition      func(State)
	now               func() time.Time
	sleep             retry.SleepFunc
	newID             func() string
}

// NewOrchestrator creates and validates an Orchestrator
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Directory == nil {
		return nil, fmt.Errorf("directory required")
	}
	if opts.Messenger == nil {
		return nil, fmt.Errorf("messenger required")
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if opts.Tasks == nil {
		return nil, fmt.Errorf("task creator required")
	}
	if opts.RetryPolicy.MaxAttempts == 0 {
		opts.RetryPolicy = retry.NewPolicy(retry.WithClassifier(clockify.IsClientError))
	}
	if err := opts.RetryPolicy.Validate(); err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	switch {
	case opts.ConfirmationDelay == 0:
		opts.ConfirmationDelay = DefaultConfirmationDelay
	case opts.ConfirmationDelay < 0:
		opts.ConfirmationDelay = 0
	}
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Orchestrator{
		directory:         opts.Directory,
		messenger:         opts.Messenger,
		ledger:            opts.Ledger,
		tasks:             opts.Tasks,
		retryPolicy:       opts.RetryPolicy,
		attemptTimeout:    opts.AttemptTimeout,
		confirmationDelay: opts.ConfirmationDelay,
		capacity:          opts.Capacity,
		onTransition:      opts.OnTransition,
		now:               opts.Now,
		sleep:             opts.Sleep,
		newID:             opts.NewID,
	}, nil
}

// Run executes the saga for one submission. On success it returns the task
// id, ledger row and thread handle. On failure it returns a *StepError after
// a best-effort ephemeral notice to the submitter.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, &StepError{Stage: StageReceived, Err: err}
	}

	state := &State{
		ID:             o.newID(),
		Stage:          StageReceived,
		Submission:     taskdesk.EnrichedSubmission{TaskSubmission: req.Submission.Trimmed()},
		Client:         req.Client,
		SubmitterID:    req.SubmitterID,
		ConversationID: req.ConversationID,
	}
	logger := log.Ctx(ctx).With(
		"submission_id", state.ID,
		"tenant", state.Client.DisplayName,
		"title", state.Submission.Title,
		"submitter", state.SubmitterID,
	)
	ctx = log.WithLogger(ctx, logger)
	logger.Info("submission saga started")
	o.transitioned(*state)

	for _, step := range o.Steps() {
		if state.Stage.Terminal() || state.Stage != step.From {
			panic(fmt.Sprintf("workflow: step %q expects stage %s, saga is in %s", step.Name, step.From, state.Stage))
		}
		started := o.now()
		if err := step.run(ctx, state); err != nil {
			return nil, o.fail(ctx, state, step, err)
		}
		state.Stage = step.To
		logger.Info("saga stage reached",
			"stage", state.Stage,
			"step", step.Name,
			"duration", o.now().Sub(started).Round(time.Millisecond))
		o.transitioned(*state)
	}

	logger.Info("submission saga completed",
		"task_id", state.TaskID,
		"ledger_row", state.LedgerRow,
		"thread_ts", state.ThreadTS)
	return &Result{
		SubmissionID: state.ID,
		TaskID:       state.TaskID,
		LedgerRow:    state.LedgerRow,
		ThreadTS:     state.ThreadTS,
		TaskAttempts: state.TaskAttempts,
	}, nil
}

func (o *Orchestrator) fail(ctx context.Context, state *State, step Step, err error) error {
	stepErr := &StepError{Stage: step.To, Err: err}
	state.Stage = StageFailed
	o.transitioned(*state)

	if notifyErr := o.messenger.PostEphemeral(ctx, state.ConversationID, state.SubmitterID, notify.Failure()); notifyErr != nil {
		log.Ctx(ctx).Error("failed to send failure notice to submitter",
			"step", step.Name, "error", notifyErr)
	}
	return stepErr
}

func (o *Orchestrator) transitioned(state State) {
	if o.onTransition != nil {
		o.onTransition(state)
	}
}
