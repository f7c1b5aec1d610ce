// Package config loads the service configuration from an optional YAML file
// overlaid by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort              = 3000
	DefaultEnvironment       = "development"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text" // "json" in production
	DefaultClockifyBaseURL   = "https://api.clockify.me/api/v1"
	DefaultClockifyAttempts  = 3
	DefaultClockifyDelay     = 2 * time.Second
	DefaultClockifyTimeout   = 10 * time.Second
	DefaultConfirmationDelay = 15 * time.Second
	DefaultTasksAtATime      = 3
	DefaultSheetName         = "submissions"
	DefaultClientsFile       = "clients.yaml"
)

// Config is the complete service configuration.
type Config struct {
	Port        int    `yaml:"port,omitempty" json:"port,omitempty"`
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	LogFormat   string `yaml:"log_format,omitempty" json:"log_format,omitempty"`
	ClientsFile string `yaml:"clients_file,omitempty" json:"clients_file,omitempty"`

	Slack    Slack    `yaml:"slack,omitempty" json:"slack,omitempty"`
	Google   Google   `yaml:"google,omitempty" json:"google,omitempty"`
	Clockify Clockify `yaml:"clockify,omitempty" json:"clockify,omitempty"`
	Workflow Workflow `yaml:"workflow,omitempty" json:"workflow,omitempty"`
}

type Slack struct {
	BotToken      string `yaml:"bot_token,omitempty" json:"bot_token,omitempty"`
	SigningSecret string `yaml:"signing_secret,omitempty" json:"signing_secret,omitempty"`
	// APIURL overrides the Web API root, e.g. for a local mock.
	APIURL string `yaml:"api_url,omitempty" json:"api_url,omitempty"`
}

type Google struct {
	ServiceAccountEmail string `yaml:"service_account_email,omitempty" json:"service_account_email,omitempty"`
	PrivateKey          string `yaml:"private_key,omitempty" json:"private_key,omitempty"`
	SheetName           string `yaml:"sheet_name,omitempty" json:"sheet_name,omitempty"`
}

type Clockify struct {
	APIKey      string         `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	WorkspaceID string         `yaml:"workspace_id,omitempty" json:"workspace_id,omitempty"`
	BaseURL     string         `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	MaxAttempts int            `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay  *time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	Timeout     *time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

type Workflow struct {
	// ConfirmationDelay of zero sends the confirmation immediately.
	ConfirmationDelay *time.Duration `yaml:"confirmation_delay,omitempty" json:"confirmation_delay,omitempty"`
	TasksAtATime      int            `yaml:"tasks_at_a_time,omitempty" json:"tasks_at_a_time,omitempty"`
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads the file at path, if path is not empty, then applies the
// process environment and defaults. It does not validate.
func Load(path string) (*Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an explicit environment lookup.
func LoadWith(path string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		parsed, err := ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		cfg = parsed
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields with any environment variables that are set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
			return
		}
		*dst = n
	}
	millis := func(key string, dst **time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
			return
		}
		d := time.Duration(n) * time.Millisecond
		*dst = &d
	}

	num("PORT", &c.Port)
	str("TASKDESK_ENV", &c.Environment)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("CLIENTS_FILE", &c.ClientsFile)

	str("SLACK_BOT_TOKEN", &c.Slack.BotToken)
	str("SLACK_SIGNING_SECRET", &c.Slack.SigningSecret)
	str("SLACK_API_URL", &c.Slack.APIURL)

	str("GOOGLE_SERVICE_ACCOUNT_EMAIL", &c.Google.ServiceAccountEmail)
	str("GOOGLE_PRIVATE_KEY", &c.Google.PrivateKey)
	str("SHEET_NAME", &c.Google.SheetName)

	str("CLOCKIFY_API_KEY", &c.Clockify.APIKey)
	str("CLOCKIFY_WORKSPACE_ID", &c.Clockify.WorkspaceID)
	str("CLOCKIFY_BASE_URL", &c.Clockify.BaseURL)
	num("CLOCKIFY_MAX_RETRIES", &c.Clockify.MaxAttempts)
	millis("CLOCKIFY_RETRY_DELAY_MS", &c.Clockify.RetryDelay)
	millis("CLOCKIFY_TIMEOUT_MS", &c.Clockify.Timeout)
	millis("CONFIRMATION_DELAY_MS", &c.Workflow.ConfirmationDelay)
	num("TASKS_AT_A_TIME", &c.Workflow.TasksAtATime)

	return errors.Join(errs...)
}

// ApplyDefaults fills every unset optional field. Durations that were set
// explicitly, zero included, are kept.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
		if c.IsProduction() {
			c.LogFormat = "json"
		}
	}
	if c.ClientsFile == "" {
		c.ClientsFile = DefaultClientsFile
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = DefaultSheetName
	}
	// Keys pasted into a single-line variable carry escaped newlines.
	c.Google.PrivateKey = strings.ReplaceAll(c.Google.PrivateKey, `\n`, "\n")
	if c.Clockify.BaseURL == "" {
		c.Clockify.BaseURL = DefaultClockifyBaseURL
	}
	if c.Clockify.MaxAttempts == 0 {
		c.Clockify.MaxAttempts = DefaultClockifyAttempts
	}
	setDefault(&c.Clockify.RetryDelay, DefaultClockifyDelay)
	setDefault(&c.Clockify.Timeout, DefaultClockifyTimeout)
	setDefault(&c.Workflow.ConfirmationDelay, DefaultConfirmationDelay)
	if c.Workflow.TasksAtATime == 0 {
		c.Workflow.TasksAtATime = DefaultTasksAtATime
	}
}

// Validate reports every missing or invalid value in one error.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"SLACK_BOT_TOKEN", c.Slack.BotToken},
		{"SLACK_SIGNING_SECRET", c.Slack.SigningSecret},
		{"GOOGLE_SERVICE_ACCOUNT_EMAIL", c.Google.ServiceAccountEmail},
		{"GOOGLE_PRIVATE_KEY", c.Google.PrivateKey},
		{"CLOCKIFY_API_KEY", c.Clockify.APIKey},
		{"CLOCKIFY_WORKSPACE_ID", c.Clockify.WorkspaceID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.Clockify.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("clockify max retries must be at least 1, got %d", c.Clockify.MaxAttempts))
	}
	if d := c.Clockify.RetryDelay; d != nil && *d < 0 {
		errs = append(errs, fmt.Errorf("clockify retry delay must not be negative, got %s", *d))
	}
	if d := c.Clockify.Timeout; d != nil && *d <= 0 {
		errs = append(errs, fmt.Errorf("clockify timeout must be positive, got %s", *d))
	}
	if d := c.Workflow.ConfirmationDelay; d != nil && *d < 0 {
		errs = append(errs, fmt.Errorf("confirmation delay must not be negative, got %s", *d))
	}
	if c.Workflow.TasksAtATime < 1 {
		errs = append(errs, fmt.Errorf("tasks at a time must be at least 1, got %d", c.Workflow.TasksAtATime))
	}
	if !isValidLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.LogFormat))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Slack.BotToken = mask(c.Slack.BotToken)
	c.Slack.SigningSecret = mask(c.Slack.SigningSecret)
	c.Google.PrivateKey = mask(c.Google.PrivateKey)
	c.Clockify.APIKey = mask(c.Clockify.APIKey)
	return c
}

func setDefault(d **time.Duration, value time.Duration) {
	if *d == nil {
		*d = &value
	}
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
