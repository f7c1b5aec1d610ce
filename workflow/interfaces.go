package workflow

import (
	"context"

	"github.com/deepnoodle-ai/taskdesk/clockify"
	"github.com/deepnoodle-ai/taskdesk/ledger"
	"github.com/deepnoodle-ai/taskdesk/notify"
)

// Directory resolves a chat user's display name.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Messenger posts chat messages.
type Messenger interface {
	// PostMessage posts to a channel, as a thread reply when threadTS is
	// set, and returns the new message's thread handle.
	PostMessage(ctx context.Context, channelID, threadTS string, msg notify.Message) (string, error)

	// PostEphemeral posts a message only userID can see.
	PostEphemeral(ctx context.Context, channelID, userID string, msg notify.Message) error
}

// Ledger records submissions in a tenant's spreadsheet.
type Ledger interface {
	AppendRow(ctx context.Context, ledgerID string, row ledger.Row) (int, error)
	UpdateTaskID(ctx context.Context, ledgerID string, rowIndex int, taskID string) error
	URL(ledgerID string) string
}

// TaskCreator creates a remote time-tracking task and returns its id.
type TaskCreator interface {
	CreateTask(ctx context.Context, projectID string, task clockify.TaskRequest) (string, error)
}
