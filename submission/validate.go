// Package submission validates task submissions and defines the Slack modal
// they are collected with.
package submission

import (
	"net/url"
	"strings"

	"github.com/deepnoodle-ai/taskdesk"
)

// Field names a submission field.
type Field string

const (
	FieldTitle           Field = "title"
	FieldRequirement     Field = "requirement"
	FieldWebsiteURL      Field = "website_url"
	FieldSystemAccess    Field = "system_access"
	FieldScreenRecording Field = "screen_recording"
)

// FieldError is one validation failure.
type FieldError struct {
	Field   Field
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Validate checks a submission and returns every problem found. An empty
// result means the submission is valid.
func Validate(s taskdesk.TaskSubmission) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, FieldError{FieldTitle, "Title is required"})
	}
	if strings.TrimSpace(s.Requirement) == "" {
		errs = append(errs, FieldError{FieldRequirement, "Detailed requirement is required"})
	}
	if v := strings.TrimSpace(s.WebsiteURL); v != "" && !IsAbsoluteURL(v) {
		errs = append(errs, FieldError{FieldWebsiteURL, "Website URL is not valid"})
	}
	if v := strings.TrimSpace(s.ScreenRecording); v != "" && !IsAbsoluteURL(v) {
		errs = append(errs, FieldError{FieldScreenRecording, "Screen recording link is not valid"})
	}
	return errs
}

// IsAbsoluteURL reports whether s parses as a URL with a scheme and a host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Messages returns the messages of errs in order.
func Messages(errs []FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}
