// Package clockify provides a client for the parts of the Clockify API
// taskdesk uses: creating project tasks and checking workspace access.
package clockify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/deepnoodle-ai/taskdesk"
)

var (
	DefaultBaseURL = "https://api.clockify.me/api/v1"
	DefaultTimeout = 10 * time.Second
)

// StatusActive is the status new tasks are created with.
const StatusActive = "ACTIVE"

// ClientOption is a function that modifies the client configuration.
type ClientOption func(*Client)

// WithAPIKey sets the API key for the client.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithWorkspaceID sets the workspace tasks are created in.
func WithWorkspaceID(workspaceID string) ClientOption {
	return func(c *Client) {
		c.workspaceID = workspaceID
	}
}

// WithBaseURL sets the base URL for the client.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is a Clockify API client.
type Client struct {
	apiKey      string
	workspaceID string
	baseURL     string
	httpClient  *http.Client
}

// New creates a client. The API key and workspace fall back to the
// CLOCKIFY_API_KEY and CLOCKIFY_WORKSPACE_ID environment variables.
func New(opts ...ClientOption) (*Client, error) {
	c := &Client{
		apiKey:      os.Getenv("CLOCKIFY_API_KEY"),
		workspaceID: os.Getenv("CLOCKIFY_WORKSPACE_ID"),
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("no api key provided")
	}
	if c.workspaceID == "" {
		return nil, fmt.Errorf("no workspace id provided")
	}
	return c, nil
}

// TaskRequest is the body of a create-task call.
type TaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Billable    bool   `json:"billable"`
}

// Task is the subset of a Clockify task taskdesk reads.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
}

// NewTaskRequest builds the create-task body for a submission. The
// description holds the requirement, website, system access, recording and
// submitter as labelled blocks, in that order; absent optional fields are
// left out.
func NewTaskRequest(sub taskdesk.EnrichedSubmission) TaskRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "**Detailed Requirement:**\n%s\n\n", sub.Requirement)
	if sub.WebsiteURL != "" {
		fmt.Fprintf(&b, "**Website URL:**\n%s\n\n", sub.WebsiteURL)
	}
	if sub.SystemAccess != "" {
		fmt.Fprintf(&b, "**System Access:**\n%s\n\n", sub.SystemAccess)
	}
	if sub.ScreenRecording != "" {
		fmt.Fprintf(&b, "**Screen Recording:**\n%s\n\n", sub.ScreenRecording)
	}
	fmt.Fprintf(&b, "**Submitted by:** %s", sub.CreatedBy)
	return TaskRequest{
		Name:        sub.Title,
		Description: b.String(),
		Status:      StatusActive,
		Billable:    true,
	}
}

// CreateTask creates a task under a project and returns its id.
func (c *Client) CreateTask(ctx context.Context, projectID string, task TaskRequest) (string, error) {
	path := fmt.Sprintf("/workspaces/%s/projects/%s/tasks",
		url.PathEscape(c.workspaceID), url.PathEscape(projectID))
	var created Task
	if err := c.do(ctx, http.MethodPost, path, task, &created); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("create task: response has no task id")
	}
	return created.ID, nil
}

// VerifyAccess checks the API key can read the configured workspace.
func (c *Client) VerifyAccess(ctx context.Context) error {
	path := "/workspaces/" + url.PathEscape(c.workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil); err != nil {
		return fmt.Errorf("verify workspace access: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NewStatusError(resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
