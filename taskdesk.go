package taskdesk

import "strings"

// ClientConfig identifies a tenant. It is loaded once at startup and never
// mutated afterwards.
type ClientConfig struct {
	// DisplayName is the human readable tenant name.
	DisplayName string `yaml:"name" json:"name"`

	// ConversationID is the Slack channel the tenant submits from.
	ConversationID string `yaml:"channel_id" json:"channel_id"`

	// LedgerID is the Google Sheets spreadsheet id.
	LedgerID string `yaml:"sheet_id" json:"sheet_id"`

	// ProjectID is the Clockify project id.
	ProjectID string `yaml:"project_id" json:"project_id"`
}

// TaskSubmission is the raw input of one submission, as extracted from the
// submission form. Optional fields are empty strings when absent.
type TaskSubmission struct {
	Title           string `json:"title"`
	Requirement     string `json:"requirement"`
	WebsiteURL      string `json:"website_url,omitempty"`
	SystemAccess    string `json:"system_access,omitempty"`
	ScreenRecording string `json:"screen_recording,omitempty"`
}

// Trimmed returns a copy of the submission with surrounding whitespace
// removed from every field.
func (s TaskSubmission) Trimmed() TaskSubmission {
	return TaskSubmission{
		Title:           strings.TrimSpace(s.Title),
		Requirement:     strings.TrimSpace(s.Requirement),
		WebsiteURL:      strings.TrimSpace(s.WebsiteURL),
		SystemAccess:    strings.TrimSpace(s.SystemAccess),
		ScreenRecording: strings.TrimSpace(s.ScreenRecording),
	}
}

// EnrichedSubmission is a TaskSubmission plus the resolved display name of
// the person who submitted it. CreatedBy is never empty.
type EnrichedSubmission struct {
	TaskSubmission
	CreatedBy string `json:"created_by"`
}
