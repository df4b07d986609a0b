package screening

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ta-nexus/internal/ai/aitest"
	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/notify"
	"github.com/spigell/ta-nexus/internal/store"
)

type stubEvaluator struct {
	result evaluation.Result
	pairs  []evaluation.QAPair
}

func (s *stubEvaluator) Evaluate(_ context.Context, sessionID string, pairs []evaluation.QAPair, _ string) evaluation.Result {
	s.pairs = pairs
	r := s.result
	r.SessionID = sessionID
	return r
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (r *recordingNotifier) RedFlash(_ context.Context, alert notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingNotifier) Reminder(context.Context, notify.ReminderNotice) error { return nil }

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "screening.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

var fixedNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, deps Deps) *Service {
	t.Helper()
	s := New(deps, Options{AppURL: "https://nexus.example/"}, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

var questions = []store.Question{
	{Text: "Explain goroutines."},
	{Text: "Describe a conflict.", Type: "behavioral"},
	{Text: "Why us?"},
}

func TestScoreHighScorerSchedulesReminder(t *testing.T) {
	repo := newRepo(t)
	eval := &stubEvaluator{result: evaluation.Result{TotalScore: 91, Recommendation: evaluation.Advance, Validated: true}}
	notifier := &recordingNotifier{}
	s := newService(t, Deps{Repo: repo, Evaluator: eval, Notifier: notifier})
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, SessionRequest{CandidateID: "cand-1", JobID: "job-1", JobDescription: "Go", Questions: questions})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{sess.Questions[0].ID, sess.Questions[1].ID, sess.Questions[2].ID})
	assert.Equal(t, fixedNow.Add(store.SessionTTL), sess.ExpiresAt)
	assert.Equal(t, "https://nexus.example/screen/"+sess.ID, s.URL(sess))

	answers := []store.Answer{{QuestionID: 1, Text: "Lightweight threads."}, {QuestionID: 3, Text: "Mission."}}
	out, err := s.Score(ctx, sess.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, sess.ID, out.Result.SessionID)
	assert.True(t, out.ReminderScheduled)
	assert.False(t, out.RedFlash)
	assert.Equal(t, "Candidate scored 91/100. Recommendation: ADVANCE.", out.Summary)
	assert.Empty(t, notifier.alerts)

	require.Len(t, eval.pairs, 3)
	assert.Equal(t, "Lightweight threads.", eval.pairs[0].Answer)
	assert.Equal(t, missingAnswer, eval.pairs[1].Answer)
	assert.Equal(t, "behavioral", eval.pairs[1].Type)
	assert.Equal(t, "general", eval.pairs[2].Type)

	score, err := repo.LatestScore(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 91, score.TotalScore)
	var stored evaluation.Result
	require.NoError(t, json.Unmarshal(score.Result, &stored))
	assert.Equal(t, evaluation.Advance, stored.Recommendation)

	got, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SessionCompleted, got.Status)

	due, err := repo.DueReminders(ctx, fixedNow.Add(DefaultFollowUpDelay))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "cand-1", due[0].CandidateID)
	assert.Equal(t, 91.0, due[0].TriggerScore)

	early, err := repo.DueReminders(ctx, fixedNow.Add(DefaultFollowUpDelay-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, early)
}

func TestScoreRedFlashAlerts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertCandidate(ctx, &candidate.Profile{ID: "cand-2", Name: "Omar"}))

	eval := &stubEvaluator{result: evaluation.Result{TotalScore: 50, Recommendation: evaluation.Screen, Validated: false}}
	notifier := &recordingNotifier{}
	s := newService(t, Deps{Repo: repo, Evaluator: eval, Notifier: notifier})

	sess, err := s.CreateSession(ctx, SessionRequest{CandidateID: "cand-2", Questions: questions})
	require.NoError(t, err)

	out, err := s.Score(ctx, sess.ID, nil)
	require.NoError(t, err)

	assert.True(t, out.RedFlash)
	assert.False(t, out.ReminderScheduled)
	require.Len(t, notifier.alerts, 1)
	alert := notifier.alerts[0]
	assert.Equal(t, "Omar", alert.CandidateName)
	assert.Equal(t, "screening", alert.Source)
	assert.Equal(t, []string{"score below 60", "unvalidated score below 70"}, alert.Reasons)
}

func TestScoreUnknownOrExpiredSession(t *testing.T) {
	repo := newRepo(t)
	s := newService(t, Deps{Repo: repo, Evaluator: &stubEvaluator{}})
	ctx := context.Background()

	_, err := s.Score(ctx, "missing", nil)
	assert.True(t, failure.Is(err, failure.NotFound))

	old := &store.Session{CandidateID: "c", CreatedAt: fixedNow.Add(-8 * 24 * time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, old))

	_, err = s.Score(ctx, old.ID, nil)
	assert.True(t, failure.Is(err, failure.NotFound))
}

func TestRedFlashReasons(t *testing.T) {
	cases := []struct {
		total     int
		validated bool
		red       bool
	}{
		{59, true, true},
		{60, true, false},
		{65, false, true},
		{65, true, false},
		{70, false, false},
	}
	for _, tc := range cases {
		got := RedFlashReasons(evaluation.Result{TotalScore: tc.total, Validated: tc.validated})
		assert.Equal(t, tc.red, len(got) > 0, "total=%d validated=%v", tc.total, tc.validated)
	}
}

func TestPairsFirstAnswerWins(t *testing.T) {
	pairs := Pairs(questions[:1], []store.Answer{{QuestionID: 1, Text: "a"}, {QuestionID: 1, Text: "b"}, {QuestionID: 9, Text: "x"}})
	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].Answer)
}

func TestCreateSessionGeneratesQuestions(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertCandidate(ctx, &candidate.Profile{ID: "cand-3", Name: "Lina", Skills: []string{"Excel"}}))

	oracle := aitest.NewSequence(aitest.Text(`{"questions": [
		{"id": 4, "type": "Technical", "question": "Model a cash flow.", "ideal_keywords": ["NPV", " "]},
		{"id": 9, "question": "Tell me about a deadline you missed."}
	]}`))
	s := newService(t, Deps{Repo: repo, Oracle: oracle, Evaluator: &stubEvaluator{}})

	sess, err := s.CreateSession(ctx, SessionRequest{CandidateID: "cand-3", JobDescription: "Financial Analyst", SkillGaps: []string{"IFRS"}})
	require.NoError(t, err)

	require.Len(t, sess.Questions, 2)
	assert.Equal(t, store.Question{ID: 1, Text: "Model a cash flow.", Type: "technical", IdealAnswer: "NPV"}, sess.Questions[0])
	assert.Equal(t, 2, sess.Questions[1].ID)
	assert.Equal(t, "general", sess.Questions[1].Type)

	reqs := oracle.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Key skill gaps to probe: IFRS")
	assert.Contains(t, reqs[0].Prompt, `"name": "Lina"`)
}

func TestCreateSessionErrors(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := newService(t, Deps{Repo: repo}).CreateSession(ctx, SessionRequest{})
	assert.True(t, failure.Is(err, failure.InvariantViolation))

	_, err = newService(t, Deps{Repo: repo}).CreateSession(ctx, SessionRequest{CandidateID: "c"})
	assert.True(t, failure.Is(err, failure.UpstreamUnavailable))

	bad := aitest.NewSequence(aitest.Text(`{"questions": []}`))
	_, err = newService(t, Deps{Repo: repo, Oracle: bad}).CreateSession(ctx, SessionRequest{CandidateID: "c"})
	assert.True(t, failure.Is(err, failure.MalformedResponse))

	failing := aitest.NewSequence(aitest.Fail(errors.New("down")))
	_, err = newService(t, Deps{Repo: repo, Oracle: failing}).CreateSession(ctx, SessionRequest{CandidateID: "c"})
	assert.Error(t, err)
}
