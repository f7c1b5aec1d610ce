// Package taskdesk accepts work-item submissions from a Slack slash command,
// records them in a per-tenant Google Sheets ledger, registers them as
// Clockify tasks, and reports progress back into a Slack thread.
//
// The core types are:
//
//   - [ClientConfig] identifies a tenant and its external-system identifiers.
//   - [TaskSubmission] is the raw form input of one submission.
//   - [EnrichedSubmission] is a submission plus the submitter's display name.
//
// The submission workflow lives in the
// [github.com/deepnoodle-ai/taskdesk/workflow] package; the adapters for the
// external systems are in [github.com/deepnoodle-ai/taskdesk/chat],
// [github.com/deepnoodle-ai/taskdesk/ledger] and
// [github.com/deepnoodle-ai/taskdesk/clockify].
package taskdesk
