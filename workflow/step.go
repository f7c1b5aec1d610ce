package workflow

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/taskdesk/clockify"
	"github.com/deepnoodle-ai/taskdesk/ledger"
	"github.com/deepnoodle-ai/taskdesk/log"
	"github.com/deepnoodle-ai/taskdesk/notify"
	"github.com/deepnoodle-ai/taskdesk/retry"
)

// Step is one transition of the saga. It runs only from its From stage and
// moves the state to its To stage when it succeeds.
type Step struct {
	Name string
	From Stage
	To   Stage
	run  func(ctx context.Context, state *State) error
}

// Steps returns the saga's transitions in execution order.
func (o *Orchestrator) Steps() []Step {
	return []Step{
		{Name: "resolve identity", From: StageReceived, To: StageIdentityResolved, run: o.resolveIdentity},
		{Name: "open thread", From: StageIdentityResolved, To: StageThreadOpened, run: o.openThread},
		{Name: "append ledger row", From: StageThreadOpened, To: StageLedgerRowAppended, run: o.appendLedgerRow},
		{Name: "create remote task", From: StageLedgerRowAppended, To: StageRemoteTaskCreated, run: o.createRemoteTask},
		{Name: "update ledger row", From: StageRemoteTaskCreated, To: StageLedgerRowUpdated, run: o.updateLedgerRow},
		{Name: "confirm", From: StageLedgerRowUpdated, To: StageConfirmed, run: o.confirm},
	}
}

// resolveIdentity is best-effort: a failed lookup falls back to the
// submitter id so the saga can continue.
func (o *Orchestrator) resolveIdentity(ctx context.Context, state *State) error {
	name, err := o.directory.DisplayName(ctx, state.SubmitterID)
	if err != nil || name == "" {
		log.Ctx(ctx).Warn("display name lookup failed, using submitter id",
			"submitter", state.SubmitterID, "error", err)
		name = state.SubmitterID
	}
	state.Submission.CreatedBy = "@" + name
	return nil
}

func (o *Orchestrator) openThread(ctx context.Context, state *State) error {
	ts, err := o.messenger.PostMessage(ctx, state.ConversationID, "",
		notify.Announcement(state.Submission, state.SubmitterID))
	if err != nil {
		return err
	}
	if ts == "" {
		return fmt.Errorf("announcement returned no thread handle")
	}
	state.ThreadTS = ts
	return nil
}

func (o *Orchestrator) appendLedgerRow(ctx context.Context, state *State) error {
	row := ledger.NewRow(state.Submission, o.now())
	index, err := o.ledger.AppendRow(ctx, state.Client.LedgerID, row)
	if err != nil {
		return err
	}
	state.LedgerRow = index
	return nil
}

func (o *Orchestrator) createRemoteTask(ctx context.Context, state *State) error {
	task := clockify.NewTaskRequest(state.Submission)
	taskID, attempts, err := retry.Do(ctx, o.retryPolicy, func(ctx context.Context, attempt int) (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
		defer cancel()
		log.Ctx(ctx).Info("creating remote task",
			"attempt", attempt, "max_attempts", o.retryPolicy.MaxAttempts, "project_id", state.Client.ProjectID)
		taskID, err := o.tasks.CreateTask(attemptCtx, state.Client.ProjectID, task)
		if err != nil && ctx.Err() != nil {
			// The saga itself was cancelled, not just this attempt.
			return "", retry.MarkPermanent(err)
		}
		return taskID, err
	})
	state.TaskAttempts = attempts
	if err != nil {
		return err
	}
	state.TaskID = taskID
	return nil
}

func (o *Orchestrator) updateLedgerRow(ctx context.Context, state *State) error {
	return o.ledger.UpdateTaskID(ctx, state.Client.LedgerID, state.LedgerRow, state.TaskID)
}

func (o *Orchestrator) confirm(ctx context.Context, state *State) error {
	if o.confirmationDelay > 0 {
		log.Ctx(ctx).Debug("waiting before confirmation", "delay", o.confirmationDelay)
		if err := o.sleep(ctx, o.confirmationDelay); err != nil {
			return err
		}
	}
	msg := notify.Confirmation(state.SubmitterID, state.TaskID, o.ledger.URL(state.Client.LedgerID), o.capacity)
	_, err := o.messenger.PostMessage(ctx, state.ConversationID, state.ThreadTS, msg)
	return err
}
