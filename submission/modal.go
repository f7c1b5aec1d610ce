package submission

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/taskdesk"
	"github.com/slack-go/slack"
)

// CallbackID identifies the submission modal in interaction payloads.
const CallbackID = "task_submission_modal"

type input struct {
	field       Field
	blockID     string
	actionID    string
	label       string
	placeholder string
	multiline   bool
	maxLength   int
	optional    bool
}

var inputs = []input{
	{
		field:       FieldTitle,
		blockID:     "task_title",
		actionID:    "title_input",
		label:       "Title of the task",
		placeholder: `e.g., Track "Add to Cart" button clicks`,
		maxLength:   200,
	},
	{
		field:       FieldRequirement,
		blockID:     "detailed_requirement",
		actionID:    "requirement_input",
		label:       "Detailed requirement",
		placeholder: "Provide detailed requirements, expected behavior, and any specific instructions...",
		multiline:   true,
		maxLength:   3000,
	},
	{
		field:       FieldWebsiteURL,
		blockID:     "website_url",
		actionID:    "url_input",
		label:       "Website URL",
		placeholder: "https://example.com",
	},
	{
		field:       FieldSystemAccess,
		blockID:     "system_access",
		actionID:    "access_input",
		label:       "System Access (GTM Container ID, GA4 Property, etc.)",
		placeholder: "GTM Container ID: GTM-XXXXXX\nGA4 Property: G-XXXXXXXXXX",
		multiline:   true,
	},
	{
		field:       FieldScreenRecording,
		blockID:     "screen_recording",
		actionID:    "recording_input",
		label:       "Link to Screen Recording",
		placeholder: "https://loom.com/share/...",
		optional:    true,
	},
}

// Metadata is attached to the modal when it is opened and returned with the
// submission. Only the conversation id travels; the tenant is resolved again
// from the registry on submission.
type Metadata struct {
	ConversationID string `json:"channel_id"`
}

// ParseMetadata decodes a modal's private metadata.
func ParseMetadata(raw string) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, fmt.Errorf("decode modal metadata: %w", err)
	}
	if m.ConversationID == "" {
		return Metadata{}, errors.New("modal metadata has no channel id")
	}
	return m, nil
}

// NewModal returns the submission modal for a tenant.
func NewModal(client taskdesk.ClientConfig) slack.ModalViewRequest {
	metadata, _ := json.Marshal(Metadata{ConversationID: client.ConversationID})

	blocks := make([]slack.Block, 0, len(inputs))
	for _, in := range inputs {
		element := &slack.PlainTextInputBlockElement{
			Type:        slack.METPlainTextInput,
			ActionID:    in.actionID,
			Placeholder: slack.NewTextBlockObject(slack.PlainTextType, in.placeholder, false, false),
			Multiline:   in.multiline,
			MaxLength:   in.maxLength,
		}
		blocks = append(blocks, &slack.InputBlock{
			Type:     slack.MBTInput,
			BlockID:  in.blockID,
			Label:    slack.NewTextBlockObject(slack.PlainTextType, in.label, false, false),
			Element:  element,
			Optional: in.optional,
		})
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Submit New Task", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Submit", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		PrivateMetadata: string(metadata),
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

// Extract reads the submission fields out of a submitted view's state.
// Missing values are empty strings.
func Extract(state *slack.ViewState) taskdesk.TaskSubmission {
	value := func(f Field) string {
		if state == nil {
			return ""
		}
		in := inputFor(f)
		return state.Values[in.blockID][in.actionID].Value
	}
	return taskdesk.TaskSubmission{
		Title:           value(FieldTitle),
		Requirement:     value(FieldRequirement),
		WebsiteURL:      value(FieldWebsiteURL),
		SystemAccess:    value(FieldSystemAccess),
		ScreenRecording: value(FieldScreenRecording),
	}
}

// BlockErrors maps validation errors to the modal block ids they belong to,
// in the shape Slack expects for a "response_action: errors" reply.
func BlockErrors(errs []FieldError) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[inputFor(e.Field).blockID] = e.Message
	}
	return out
}

func inputFor(f Field) input {
	for _, in := range inputs {
		if in.field == f {
			return in
		}
	}
	panic("submission: unknown field " + string(f))
}

// BlockID returns the modal block holding a field.
func BlockID(f Field) string {
	return inputFor(f).blockID
}
