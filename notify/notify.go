// Package notify builds the Slack messages a submission produces. Every
// function is pure: the same inputs give the same message.
package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/deepnoodle-ai/taskdesk"
	"github.com/mattn/go-runewidth"
	"github.com/slack-go/slack"
)

// maxHeaderWidth keeps header text under Slack's 150 character limit.
const maxHeaderWidth = 140

// Slack's text limits, in characters.
const (
	MaxSectionText = 3000
	MaxFieldText   = 2000
)

// Message is a Slack message: fallback text plus Block Kit blocks.
type Message struct {
	Text   string
	Blocks []slack.Block
}

// Options returns the message as slack.MsgOption values.
func (m Message) Options() []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(m.Text, false)}
	if len(m.Blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(m.Blocks...))
	}
	return opts
}

// Announcement is the first message of a submission's thread. It repeats
// every submitted field so the channel has an audit trail of the request.
func Announcement(sub taskdesk.EnrichedSubmission, submitterID string) Message {
	title := runewidth.Truncate(sub.Title, maxHeaderWidth, "…")

	fields := []*slack.TextBlockObject{
		labelled("*Submitted by:*\n", mention(submitterID, sub.CreatedBy), MaxFieldText),
		labelled("*Website URL:*\n", orNone(sub.WebsiteURL), MaxFieldText),
	}
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "New task: "+title, false, false)),
		slack.NewSectionBlock(labelled("*Detailed requirement:*\n", Escape(sub.Requirement), MaxSectionText), nil, nil),
		slack.NewSectionBlock(nil, fields, nil),
		slack.NewSectionBlock(labelled("*System access:*\n", orNone(sub.SystemAccess), MaxSectionText), nil, nil),
		slack.NewSectionBlock(labelled("*Screen recording:*\n", orNone(sub.ScreenRecording), MaxSectionText), nil, nil),
		slack.NewContextBlock("", mrkdwn("Processing… updates will follow in this thread.")),
	}
	return Message{
		Text:   fmt.Sprintf("New task from %s: %s", sub.CreatedBy, sub.Title),
		Blocks: blocks,
	}
}

// Confirmation is the thread reply sent once the task exists in the ledger
// and the time tracker.
func Confirmation(submitterID, taskID, ledgerURL string, capacity int) Message {
	greeting := fmt.Sprintf("Hey <@%s>\n\nThanks for the task. Task ID: *%s*", submitterID, Escape(taskID))
	note := fmt.Sprintf("You can check all tasks <%s|here>. If you have multiple tasks and need to set priorities, just let us know.", ledgerURL)
	if capacity > 0 {
		note += fmt.Sprintf(" We handle %s at a time.", plural(capacity, "task"))
	}
	return Message{
		Text: fmt.Sprintf("Thanks for the task. Task ID: %s", taskID),
		Blocks: []slack.Block{
			slack.NewSectionBlock(mrkdwn(greeting), nil, nil),
			slack.NewSectionBlock(mrkdwn(note), nil, nil),
		},
	}
}

// Failure is the ephemeral notice sent to the submitter when processing
// fails. It never includes error details.
func Failure() Message {
	return Message{
		Text: ":x: Sorry, there was an error processing your task submission. " +
			"Our team has been notified. Please try again or contact support.",
	}
}

// Unconfigured is the reply to a slash command used outside a configured
// channel.
func Unconfigured() Message {
	return Message{
		Text: ":warning: This app is only available in configured client channels. Please contact your administrator.",
	}
}

// Escape replaces the characters Slack treats as control sequences in
// mrkdwn text, so user input cannot produce mentions or links.
func Escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// labelled joins a label and already escaped text, clipping the text so the
// whole fits in limit characters.
func labelled(label, text string, limit int) *slack.TextBlockObject {
	return mrkdwn(label + Clip(text, limit-utf8.RuneCountInString(label)))
}

// Clip shortens escaped mrkdwn text to at most limit characters, ending it
// with an ellipsis. It never cuts an entity such as &amp; in half.
func Clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit < 1 {
		return ""
	}
	cut := runes[:limit-1]
	// An entity is at most five characters (&amp;).
	for i := len(cut) - 1; i >= 0 && i >= len(cut)-5; i-- {
		if cut[i] == ';' {
			break
		}
		if cut[i] == '&' {
			cut = cut[:i]
			break
		}
	}
	return string(cut) + "…"
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func mention(userID, name string) string {
	if userID == "" {
		return Escape(name)
	}
	return fmt.Sprintf("<@%s>", userID)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_none_"
	}
	return Escape(s)
}

func plural(n int, word string) string {
	words := map[int]string{1: "one", 2: "two", 3: "three", 4: "four", 5: "five"}
	count, ok := words[n]
	if !ok {
		count = fmt.Sprint(n)
	}
	if n == 1 {
		return count + " " + word
	}
	return count + " " + word + "s"
}
