package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deepnoodle-ai/taskdesk/clockify"
	"github.com/deepnoodle-ai/taskdesk/ledger"
	"github.com/deepnoodle-ai/taskdesk/notify"
)

type fakeDirectory struct {
	names map[string]string
	err   error
}

func (d *fakeDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.names[userID], nil
}

type post struct {
	channel string
	thread  string
	msg     notify.Message
}

type fakeMessenger struct {
	mu           sync.Mutex
	posts        []post
	ephemerals   []post
	seq          int
	postErr      error
	failOnPost   int // 1-based index of the post that fails, 0 for none
	ephemeralErr error
}

func (m *fakeMessenger) PostMessage(ctx context.Context, channelID, threadTS string, msg notify.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if m.postErr != nil && (m.failOnPost == 0 || m.failOnPost == m.seq) {
		return "", m.postErr
	}
	m.posts = append(m.posts, post{channelID, threadTS, msg})
	return fmt.Sprintf("1700000000.%06d", m.seq), nil
}

func (m *fakeMessenger) PostEphemeral(ctx context.Context, channelID, userID string, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ephemerals = append(m.ephemerals, post{channelID, userID, msg})
	return m.ephemeralErr
}

type fakeLedger struct {
	mu        sync.Mutex
	rows      map[string][]ledger.Row
	appended  []ledger.Row
	appendErr error
	updateErr error
	updates   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[string][]ledger.Row{}}
}

func (l *fakeLedger) AppendRow(ctx context.Context, ledgerID string, row ledger.Row) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return 0, l.appendErr
	}
	l.rows[ledgerID] = append(l.rows[ledgerID], row)
	l.appended = append(l.appended, row)
	// Row 1 is the header.
	return len(l.rows[ledgerID]) + 1, nil
}

func (l *fakeLedger) UpdateTaskID(ctx context.Context, ledgerID string, rowIndex int, taskID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates++
	if l.updateErr != nil {
		return l.updateErr
	}
	rows := l.rows[ledgerID]
	i := rowIndex - 2
	if i < 0 || i >= len(rows) {
		return fmt.Errorf("row %d out of range", rowIndex)
	}
	rows[i][ledger.ColumnTaskID] = taskID
	return nil
}

func (l *fakeLedger) URL(ledgerID string) string {
	return ledger.URL(ledgerID)
}

func (l *fakeLedger) row(ledgerID string, index int) ledger.Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[ledgerID][index-2]
}

// fakeTasks fails with errs[i] on attempt i+1 and succeeds afterwards.
type fakeTasks struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	requests []clockify.TaskRequest
	block    bool
}

func (f *fakeTasks) CreateTask(ctx context.Context, projectID string, task clockify.TaskRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.requests = append(f.requests, task)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if call <= len(f.errs) {
		return "", f.errs[call-1]
	}
	return fmt.Sprintf("task-%s-%d", projectID, call), nil
}

type sleepCounter struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepCounter) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

var errUnavailable = errors.New("503 service unavailable")
