package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/risk"
)

const postgresDSNEnv = "TA_NEXUS_TEST_POSTGRES_DSN"

func newSQLite(t *testing.T) Repository {
	t.Helper()

	repo, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryContract(t, newSQLite(t))
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", postgresDSNEnv)
	}

	repo, err := NewPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	runRepositoryContract(t, repo)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	require.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "postgres"})
	require.Error(t, err)
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	repo, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	defer repo.Close()

	_, ok := repo.(*SQLiteStore)
	assert.True(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	sess := &Session{CreatedAt: now}
	prepareSession(sess)

	assert.Equal(t, now.Add(7*24*time.Hour), sess.ExpiresAt)
	assert.False(t, sess.Expired(now.Add(6*24*time.Hour)))
	assert.True(t, sess.Expired(now.Add(8*24*time.Hour)))
	assert.Equal(t, "/screen/"+sess.ID, sess.ScreeningURL())
}

func runRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	t.Run("candidates", func(t *testing.T) {
		profile := &candidate.Profile{
			Name:       "Ada Lovelace",
			Email:      "ada@example.com",
			Skills:     []string{"go", "math"},
			JobHistory: []risk.Job{{Title: "Engineer", Company: "Analytical", TenureMonths: 40}},
			SalaryAsk:  120000,
		}
		require.NoError(t, repo.UpsertCandidate(ctx, profile))
		require.NotEmpty(t, profile.ID)

		profile.CurrentTitle = "Principal"
		require.NoError(t, repo.UpsertCandidate(ctx, profile))

		got, err := repo.GetCandidate(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, *profile, *got)

		_, err = repo.GetCandidate(ctx, "missing")
		assert.True(t, failure.Is(err, failure.NotFound))
	})

	t.Run("sessions", func(t *testing.T) {
		sess := &Session{
			CandidateID:    "cand-1",
			JobID:          "job-1",
			JobDescription: "Go engineer",
			Questions:      []Question{{ID: 1, Text: "Why Go?"}, {ID: 2, Text: "Tell me about testing"}},
		}
		require.NoError(t, repo.CreateSession(ctx, sess))
		assert.Equal(t, SessionPending, sess.Status)

		got, err := repo.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.Questions, got.Questions)
		assert.Equal(t, SessionPending, got.Status)
		assert.Equal(t, sess.ExpiresAt.Unix(), got.ExpiresAt.Unix())
		assert.Nil(t, got.SubmittedAt)

		at := time.Now().UTC()
		answers := []Answer{{QuestionID: 1, Text: "Simplicity"}}
		require.NoError(t, repo.CompleteSession(ctx, sess.ID, answers, at))

		got, err = repo.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, SessionCompleted, got.Status)
		assert.Equal(t, answers, got.Answers)
		require.NotNil(t, got.SubmittedAt)
		assert.Equal(t, at.Unix(), got.SubmittedAt.Unix())

		_, err = repo.GetSession(ctx, "missing")
		assert.True(t, failure.Is(err, failure.NotFound))
		assert.True(t, failure.Is(repo.CompleteSession(ctx, "missing", nil, at), failure.NotFound))
	})

	t.Run("scores", func(t *testing.T) {
		sessionID := "sess-scores"
		older := &Score{SessionID: sessionID, CandidateID: "c", TotalScore: 40, Recommendation: "reject",
			ScoredAt: time.Now().UTC().Add(-time.Hour)}
		newer := &Score{SessionID: sessionID, CandidateID: "c", TotalScore: 90, Recommendation: "advance",
			Validated: true, Result: json.RawMessage(`{"total_score":90}`)}
		require.NoError(t, repo.SaveScore(ctx, older))
		require.NoError(t, repo.SaveScore(ctx, newer))

		got, err := repo.LatestScore(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)
		assert.Equal(t, 90, got.TotalScore)
		assert.True(t, got.Validated)
		assert.JSONEq(t, `{"total_score":90}`, string(got.Result))

		_, err = repo.LatestScore(ctx, "none")
		assert.True(t, failure.Is(err, failure.NotFound))
	})

	t.Run("reminders", func(t *testing.T) {
		now := time.Now().UTC()
		due := &Reminder{CandidateID: "c1", FollowUpAt: now.Add(-time.Minute), TriggerScore: 91}
		later := &Reminder{CandidateID: "c2", FollowUpAt: now.Add(48 * time.Hour), TriggerScore: 88}
		require.NoError(t, repo.ScheduleReminder(ctx, due))
		require.NoError(t, repo.ScheduleReminder(ctx, later))

		reminders, err := repo.DueReminders(ctx, now)
		require.NoError(t, err)
		ids := reminderIDs(reminders)
		assert.Contains(t, ids, due.ID)
		assert.NotContains(t, ids, later.ID)

		require.NoError(t, repo.MarkReminderSent(ctx, due.ID, now))

		reminders, err = repo.DueReminders(ctx, now)
		require.NoError(t, err)
		assert.NotContains(t, reminderIDs(reminders), due.ID)

		assert.True(t, failure.Is(repo.MarkReminderSent(ctx, "missing", now), failure.NotFound))
	})

	t.Run("snapshots", func(t *testing.T) {
		key := "session-key-1"
		base := time.Now().UTC()
		first := &Snapshot{SessionKey: key, Summary: "first", KeyFacts: []string{"a"}, CreatedAt: base}
		second := &Snapshot{SessionKey: key, Summary: "second", TokensBefore: 2400, TokensAfter: 40,
			CompressionRatio: 60, CreatedAt: base.Add(time.Second)}
		require.NoError(t, repo.SaveSnapshot(ctx, first))
		require.NoError(t, repo.SaveSnapshot(ctx, second))

		got, err := repo.LatestSnapshot(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Summary)
		assert.Equal(t, []string{}, got.KeyFacts)
		assert.Equal(t, 60.0, got.CompressionRatio)

		_, err = repo.LatestSnapshot(ctx, "unknown")
		assert.True(t, failure.Is(err, failure.NotFound))
	})
}

func reminderIDs(reminders []*Reminder) []string {
	ids := make([]string, 0, len(reminders))
	for _, r := range reminders {
		ids = append(ids, r.ID)
	}
	return ids
}
