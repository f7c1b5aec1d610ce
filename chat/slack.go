// Package chat is the Slack side of taskdesk: user lookups, channel and
// thread messages, ephemeral notices and modals.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/taskdesk/notify"
	"github.com/slack-go/slack"
)

// Slack talks to the Slack Web API with a bot token.
type Slack struct {
	api *slack.Client
}

// Option configures the underlying slack client.
type Option = slack.Option

// WithAPIURL points the client at a different Web API root. Used by tests.
func WithAPIURL(u string) Option {
	return slack.OptionAPIURL(u)
}

// NewSlack returns a Slack adapter authenticated with a bot token.
func NewSlack(botToken string, opts ...Option) (*Slack, error) {
	if botToken == "" {
		return nil, errors.New("no slack bot token provided")
	}
	return &Slack{api: slack.New(botToken, opts...)}, nil
}

// DisplayName returns the user's real name, falling back to their handle.
func (s *Slack) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := s.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", userID, err)
	}
	if user.RealName != "" {
		return user.RealName, nil
	}
	if user.Profile.RealName != "" {
		return user.Profile.RealName, nil
	}
	return user.Name, nil
}

// PostMessage posts msg to a channel, as a reply in threadTS when it is set,
// and returns the new message's timestamp.
func (s *Slack) PostMessage(ctx context.Context, channelID, threadTS string, msg notify.Message) (string, error) {
	opts := msg.Options()
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, ts, err := s.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", fmt.Errorf("post message to %s: %w", channelID, err)
	}
	return ts, nil
}

// PostEphemeral posts msg to a channel, visible only to userID.
func (s *Slack) PostEphemeral(ctx context.Context, channelID, userID string, msg notify.Message) error {
	if _, err := s.api.PostEphemeralContext(ctx, channelID, userID, msg.Options()...); err != nil {
		return fmt.Errorf("post ephemeral to %s in %s: %w", userID, channelID, err)
	}
	return nil
}

// OpenModal opens a modal for the interaction identified by triggerID.
func (s *Slack) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := s.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("open modal: %w", err)
	}
	return nil
}

// VerifyAccess checks the bot token is valid.
func (s *Slack) VerifyAccess(ctx context.Context) error {
	if _, err := s.api.AuthTestContext(ctx); err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	return nil
}
