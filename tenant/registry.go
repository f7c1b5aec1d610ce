// Package tenant holds the read-only registry of configured clients.
package tenant

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/deepnoodle-ai/taskdesk"
	"github.com/goccy/go-yaml"
)

// ErrNotFound is returned when no tenant is configured for a conversation.
var ErrNotFound = errors.New("tenant not found")

// Registry maps conversation ids to tenants. It is built once and has no
// mutation methods, so it is safe for concurrent use without locking.
type Registry struct {
	byConversation map[string]taskdesk.ClientConfig
	ordered        []taskdesk.ClientConfig
}

type file struct {
	Clients []taskdesk.ClientConfig `yaml:"clients"`
}

// NewRegistry validates clients and returns a registry over a copy of them.
func NewRegistry(clients []taskdesk.ClientConfig) (*Registry, error) {
	r := &Registry{
		byConversation: make(map[string]taskdesk.ClientConfig, len(clients)),
		ordered:        make([]taskdesk.ClientConfig, 0, len(clients)),
	}
	var errs []error
	for i, c := range clients {
		if err := validate(c); err != nil {
			errs = append(errs, fmt.Errorf("client %d: %w", i, err))
			continue
		}
		if existing, ok := r.byConversation[c.ConversationID]; ok {
			errs = append(errs, fmt.Errorf("client %d (%s): channel %s already used by %s",
				i, c.DisplayName, c.ConversationID, existing.DisplayName))
			continue
		}
		r.byConversation[c.ConversationID] = c
		r.ordered = append(r.ordered, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].DisplayName < r.ordered[j].DisplayName
	})
	return r, nil
}

// ParseYAML builds a registry from a YAML document with a top-level
// "clients" list.
func ParseYAML(data []byte) (*Registry, error) {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse clients: %w", err)
	}
	return NewRegistry(f.Clients)
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	r, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Lookup returns the tenant configured for a conversation.
func (r *Registry) Lookup(conversationID string) (taskdesk.ClientConfig, error) {
	c, ok := r.byConversation[conversationID]
	if !ok {
		return taskdesk.ClientConfig{}, fmt.Errorf("%w: %s", ErrNotFound, conversationID)
	}
	return c, nil
}

// All returns every tenant sorted by display name. The slice is a copy.
func (r *Registry) All() []taskdesk.ClientConfig {
	out := make([]taskdesk.ClientConfig, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of tenants.
func (r *Registry) Len() int {
	return len(r.ordered)
}

func validate(c taskdesk.ClientConfig) error {
	var missing []string
	if c.DisplayName == "" {
		missing = append(missing, "name")
	}
	if c.ConversationID == "" {
		missing = append(missing, "channel_id")
	}
	if c.LedgerID == "" {
		missing = append(missing, "sheet_id")
	}
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %v", missing)
	}
	return nil
}
