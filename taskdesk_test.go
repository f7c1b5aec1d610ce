package taskdesk

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"
)

func TestTrimmed(t *testing.T) {
	s := TaskSubmission{
		Title:           "  Track clicks\n",
		Requirement:     "\tAdd GA4 event ",
		WebsiteURL:      " https://acme.example ",
		SystemAccess:    " ",
		ScreenRecording: "",
	}
	require.Equal(t, TaskSubmission{
		Title:        "Track clicks",
		Requirement:  "Add GA4 event",
		WebsiteURL:   "https://acme.example",
		SystemAccess: "",
	}, s.Trimmed())
}

func TestClientConfigYAML(t *testing.T) {
	var c ClientConfig
	require.NoError(t, yaml.Unmarshal([]byte(`
name: Acme Corp
channel_id: C0ACJSWMREH
sheet_id: sheet-acme
project_id: proj-acme
`), &c))
	require.Equal(t, ClientConfig{
		DisplayName:    "Acme Corp",
		ConversationID: "C0ACJSWMREH",
		LedgerID:       "sheet-acme",
		ProjectID:      "proj-acme",
	}, c)
}
