package clockify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepnoodle-ai/taskdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(
		WithAPIKey("test-key"),
		WithWorkspaceID("ws-1"),
		WithBaseURL(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("CLOCKIFY_API_KEY", "")
	t.Setenv("CLOCKIFY_WORKSPACE_ID", "")

	_, err := New()
	require.Error(t, err)
	_, err = New(WithAPIKey("k"))
	require.Error(t, err)
	_, err = New(WithAPIKey("k"), WithWorkspaceID("ws"))
	require.NoError(t, err)

	t.Setenv("CLOCKIFY_API_KEY", "env-key")
	t.Setenv("CLOCKIFY_WORKSPACE_ID", "env-ws")
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "env-key", c.apiKey)
	require.Equal(t, "env-ws", c.workspaceID)
}

func TestCreateTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workspaces/ws-1/projects/proj-1/tasks", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req TaskRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Track clicks", req.Name)
		assert.Equal(t, StatusActive, req.Status)
		assert.True(t, req.Billable)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"task-42","name":"Track clicks","projectId":"proj-1","status":"ACTIVE"}`)
	})

	id, err := c.CreateTask(context.Background(), "proj-1", TaskRequest{Name: "Track clicks", Status: StatusActive, Billable: true})
	require.NoError(t, err)
	require.Equal(t, "task-42", id)
}

func TestCreateTaskErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		clientError bool
	}{
		{"bad request", http.StatusBadRequest, `{"message":"name is required"}`, true},
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad key"}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"bad gateway", http.StatusBadGateway, ``, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := c.CreateTask(context.Background(), "proj-1", TaskRequest{Name: "x"})
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tc.status, statusErr.StatusCode)
			require.Equal(t, tc.clientError, IsClientError(err))
		})
	}
}

func TestCreateTaskMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	_, err := c.CreateTask(context.Background(), "proj-1", TaskRequest{Name: "x"})
	require.Error(t, err)
	require.False(t, IsClientError(err))
}

func TestNetworkErrorIsNotClientError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(WithAPIKey("k"), WithWorkspaceID("ws"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.CreateTask(context.Background(), "p", TaskRequest{Name: "x"})
	require.Error(t, err)
	require.False(t, IsClientError(err))
	require.False(t, IsClientError(errors.New("plain")))
}

func TestVerifyAccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workspaces/ws-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"id":"ws-1","name":"Agency"}`)
	})
	require.NoError(t, c.VerifyAccess(context.Background()))
}

func TestNewTaskRequest(t *testing.T) {
	full := NewTaskRequest(taskdesk.EnrichedSubmission{
		TaskSubmission: taskdesk.TaskSubmission{
			Title:           "Track clicks",
			Requirement:     "Add GA4 event",
			WebsiteURL:      "https://example.com",
			SystemAccess:    "GTM-1",
			ScreenRecording: "https://loom.com/share/1",
		},
		CreatedBy: "@Jane Doe",
	})
	require.Equal(t, TaskRequest{
		Name: "Track clicks",
		Description: "**Detailed Requirement:**\nAdd GA4 event\n\n" +
			"**Website URL:**\nhttps://example.com\n\n" +
			"**System Access:**\nGTM-1\n\n" +
			"**Screen Recording:**\nhttps://loom.com/share/1\n\n" +
			"**Submitted by:** @Jane Doe",
		Status:   StatusActive,
		Billable: true,
	}, full)

	minimal := NewTaskRequest(taskdesk.EnrichedSubmission{
		TaskSubmission: taskdesk.TaskSubmission{Title: "t", Requirement: "r"},
		CreatedBy:      "@jdoe",
	})
	require.Equal(t, "**Detailed Requirement:**\nr\n\n**Submitted by:** @jdoe", minimal.Description)
}
