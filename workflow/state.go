package workflow

import (
	"fmt"

	"github.com/deepnoodle-ai/taskdesk"
)

// Stage is a state of the submission saga.
type Stage string

const (
	StageReceived          Stage = "received"
	StageIdentityResolved  Stage = "identity_resolved"
	StageThreadOpened      Stage = "thread_opened"
	StageLedgerRowAppended Stage = "ledger_row_appended"
	StageRemoteTaskCreated Stage = "remote_task_created"
	StageLedgerRowUpdated  Stage = "ledger_row_updated"
	StageConfirmed         Stage = "confirmed"
	StageFailed            Stage = "failed"
)

// Terminal reports whether no further transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageConfirmed || s == StageFailed
}

// Request is one submission handed to the saga.
type Request struct {
	Submission     taskdesk.TaskSubmission
	Client         taskdesk.ClientConfig
	SubmitterID    string
	ConversationID string
}

// Validate checks the request carries everything the saga needs.
func (r Request) Validate() error {
	switch {
	case r.SubmitterID == "":
		return fmt.Errorf("submitter id required")
	case r.ConversationID == "":
		return fmt.Errorf("conversation id required")
	case r.Client.LedgerID == "":
		return fmt.Errorf("client %q has no ledger id", r.Client.DisplayName)
	case r.Client.ProjectID == "":
		return fmt.Errorf("client %q has no project id", r.Client.DisplayName)
	}
	return nil
}

// State is the saga's record of one submission. Each step fills in the
// field it produces. It is owned by a single Run call.
type State struct {
	ID             string
	Stage          Stage
	Submission     taskdesk.EnrichedSubmission
	Client         taskdesk.ClientConfig
	SubmitterID    string
	ConversationID string
	ThreadTS       string
	LedgerRow      int
	TaskID         string
	TaskAttempts   int
}

// Result is returned by a successful saga.
type Result struct {
	SubmissionID string
	TaskID       string
	LedgerRow    int
	ThreadTS     string
	TaskAttempts int
}

// StepError reports the stage the saga failed to reach and why.
type StepError struct {
	Stage Stage
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga failed entering %s: %s", e.Stage, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
