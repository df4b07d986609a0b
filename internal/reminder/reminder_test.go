package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/notify"
	"github.com/spigell/ta-nexus/internal/store"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.ReminderNotice
	fail    map[string]bool
	sent    chan struct{}
}

func (r *recordingNotifier) RedFlash(context.Context, notify.Alert) error { return nil }

func (r *recordingNotifier) Reminder(_ context.Context, n notify.ReminderNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[n.CandidateID] {
		return errors.New("slack down")
	}
	r.notices = append(r.notices, n)
	if r.sent != nil {
		select {
		case r.sent <- struct{}{}:
		default:
		}
	}
	return nil
}

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDispatchDue(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertCandidate(ctx, &candidate.Profile{ID: "c1", Name: "Sara"}))

	due := &store.Reminder{CandidateID: "c1", FollowUpAt: now.Add(-time.Hour), TriggerScore: 92, Note: "call"}
	failing := &store.Reminder{CandidateID: "c2", FollowUpAt: now.Add(-time.Minute), TriggerScore: 88}
	future := &store.Reminder{CandidateID: "c3", FollowUpAt: now.Add(time.Hour), TriggerScore: 90}
	for _, r := range []*store.Reminder{due, failing, future} {
		require.NoError(t, repo.ScheduleReminder(ctx, r))
	}

	notifier := &recordingNotifier{fail: map[string]bool{"c2": true}}
	d, err := New(repo, notifier, Options{}, nil)
	require.NoError(t, err)
	d.now = func() time.Time { return now }

	sent, err := d.DispatchDue(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, "Sara", notifier.notices[0].CandidateName)
	assert.Equal(t, 92.0, notifier.notices[0].Score)
	assert.Equal(t, "call", notifier.notices[0].Note)

	remaining, err := repo.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, failing.ID, remaining[0].ID)

	notifier.fail = nil
	sent, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(nil, nil, Options{Schedule: "every tuesday"}, nil)
	assert.Error(t, err)
}

func TestRunDispatchesOnSchedule(t *testing.T) {
	repo := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.ScheduleReminder(ctx, &store.Reminder{CandidateID: "c1", FollowUpAt: time.Now().UTC().Add(-time.Hour)}))

	notifier := &recordingNotifier{sent: make(chan struct{}, 1)}
	d, err := New(repo, notifier, Options{Schedule: "@every 1s"}, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-notifier.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("reminder was not dispatched")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
