// Package screening runs candidate screening sessions: it creates the
// session, grades the submitted answers and records the outcome.
package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/notify"
	"github.com/spigell/ta-nexus/internal/store"
)

const (
	DefaultReminderScore = 85
	DefaultFollowUpDelay = 48 * time.Hour

	missingAnswer = "[No answer provided]"
)

type Evaluator interface {
	Evaluate(ctx context.Context, sessionID string, pairs []evaluation.QAPair, jobDescription string) evaluation.Result
}

// Deps are the collaborators of the service. Oracle is only needed to
// generate questions and Notifier may be nil.
type Deps struct {
	Repo      store.Repository
	Evaluator Evaluator
	Oracle    ai.Oracle
	Notifier  notify.Notifier
}

type Options struct {
	// ReminderScore is the total score from which a follow-up is scheduled.
	ReminderScore int           `mapstructure:"reminder-score"`
	FollowUpDelay time.Duration `mapstructure:"follow-up-delay"`
	AppURL        string        `mapstructure:"app-url"`
}

type Service struct {
	repo      store.Repository
	evaluator Evaluator
	oracle    ai.Oracle
	notifier  notify.Notifier
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func New(deps Deps, opts Options, log *zap.Logger) *Service {
	if opts.ReminderScore <= 0 {
		opts.ReminderScore = DefaultReminderScore
	}
	if opts.FollowUpDelay <= 0 {
		opts.FollowUpDelay = DefaultFollowUpDelay
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")

	return &Service{
		repo:      deps.Repo,
		evaluator: deps.Evaluator,
		oracle:    deps.Oracle,
		notifier:  deps.Notifier,
		opts:      opts,
		logger:    logger.Component(log, "screening"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type SessionRequest struct {
	CandidateID    string
	JobID          string
	JobDescription string
	Questions      []store.Question
	SkillGaps      []string
}

// CreateSession stores a new pending session. When no questions are given
// they are generated for the stored candidate profile.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest) (*store.Session, error) {
	if strings.TrimSpace(req.CandidateID) == "" {
		return nil, failure.New(failure.InvariantViolation, "create session", errors.New("candidate id is required"))
	}

	questions := req.Questions
	if len(questions) == 0 {
		profile, err := s.repo.GetCandidate(ctx, req.CandidateID)
		if err != nil && !failure.Is(err, failure.NotFound) {
			return nil, err
		}

		questions, err = s.GenerateQuestions(ctx, profile, req.JobDescription, req.SkillGaps)
		if err != nil {
			return nil, err
		}
	}

	sess := &store.Session{
		CandidateID:    req.CandidateID,
		JobID:          req.JobID,
		JobDescription: req.JobDescription,
		Questions:      numbered(questions),
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("screening session created",
		append(logger.SessionFields(sess.ID, sess.CandidateID),
			zap.Int("questions", len(sess.Questions)),
			zap.Time("expires_at", sess.ExpiresAt),
		)...,
	)

	return sess, nil
}

// URL is the absolute screening link when an app url is configured.
func (s *Service) URL(sess *store.Session) string {
	return s.opts.AppURL + sess.ScreeningURL()
}

type Outcome struct {
	SessionID         string            `json:"session_id" yaml:"session_id"`
	CandidateID       string            `json:"candidate_id" yaml:"candidate_id"`
	Result            evaluation.Result `json:"result" yaml:"result"`
	Summary           string            `json:"executive_summary" yaml:"executive_summary"`
	ReminderScheduled bool              `json:"auto_reminder_set" yaml:"auto_reminder_set"`
	RedFlash          bool              `json:"red_flash" yaml:"red_flash"`
}

// Score grades the answers of a session. Unknown and expired sessions are
// reported as failure.NotFound. Writes after the evaluation are best effort:
// their failures are logged and do not fail the call.
func (s *Service) Score(ctx context.Context, sessionID string, answers []store.Answer) (*Outcome, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sess.Expired(now) {
		return nil, failure.Missing("score session", fmt.Errorf("session %s expired at %s", sess.ID, sess.ExpiresAt.Format(time.RFC3339)))
	}

	log := s.logger.With(logger.SessionFields(sess.ID, sess.CandidateID)...)

	result := s.evaluator.Evaluate(ctx, sess.ID, Pairs(sess.Questions, answers), sess.JobDescription)
	reasons := RedFlashReasons(result)

	outcome := &Outcome{
		SessionID:   sess.ID,
		CandidateID: sess.CandidateID,
		Result:      result,
		Summary: fmt.Sprintf("Candidate scored %d/100. Recommendation: %s.",
			result.TotalScore, strings.ToUpper(string(result.Recommendation))),
		RedFlash: len(reasons) > 0,
	}

	s.saveScore(ctx, log, sess, outcome, now)

	if err := s.repo.CompleteSession(ctx, sess.ID, answers, now); err != nil {
		log.Warn("failed to complete session", zap.Error(err))
	}

	if result.TotalScore >= s.opts.ReminderScore {
		outcome.ReminderScheduled = s.scheduleReminder(ctx, log, sess, result, now)
	}

	if outcome.RedFlash && s.notifier != nil {
		alert := notify.Alert{
			CandidateID: sess.CandidateID,
			SessionID:   sess.ID,
			Source:      "screening",
			Score:       result.TotalScore,
			Decision:    string(result.Recommendation),
			Reasons:     reasons,
		}
		if profile, err := s.repo.GetCandidate(ctx, sess.CandidateID); err == nil {
			alert.CandidateName = profile.Name
		}
		if err := s.notifier.RedFlash(ctx, alert); err != nil {
			log.Warn("failed to send red flash alert", zap.Error(err))
		}
	}

	log.Info("screening scored",
		zap.Int("total_score", result.TotalScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Bool("validated", result.Validated),
		zap.Bool("red_flash", outcome.RedFlash),
		zap.Bool("reminder", outcome.ReminderScheduled),
	)

	return outcome, nil
}

func (s *Service) saveScore(ctx context.Context, log *zap.Logger, sess *store.Session, o *Outcome, now time.Time) {
	raw, err := json.Marshal(o.Result)
	if err != nil {
		log.Warn("failed to encode evaluation result", zap.Error(err))
		raw = nil
	}

	record := &store.Score{
		SessionID:      sess.ID,
		CandidateID:    sess.CandidateID,
		TotalScore:     o.Result.TotalScore,
		Recommendation: string(o.Result.Recommendation),
		Validated:      o.Result.Validated,
		RedFlash:       o.RedFlash,
		Result:         raw,
		ScoredAt:       now,
	}
	if err := s.repo.SaveScore(ctx, record); err != nil {
		log.Warn("failed to save score", zap.Error(err))
	}
}

func (s *Service) scheduleReminder(ctx context.Context, log *zap.Logger, sess *store.Session, result evaluation.Result, now time.Time) bool {
	reminder := &store.Reminder{
		CandidateID:  sess.CandidateID,
		SessionID:    sess.ID,
		FollowUpAt:   now.Add(s.opts.FollowUpDelay),
		TriggerScore: float64(result.TotalScore),
		Note:         fmt.Sprintf("Auto-scheduled after screening score %d/100", result.TotalScore),
		CreatedAt:    now,
	}
	if err := s.repo.ScheduleReminder(ctx, reminder); err != nil {
		log.Warn("failed to schedule reminder", zap.Error(err))
		return false
	}
	return true
}

// Pairs matches answers to questions by 1-based position. Questions without
// an answer get a placeholder.
func Pairs(questions []store.Question, answers []store.Answer) []evaluation.QAPair {
	byID := make(map[int]string, len(answers))
	for _, a := range answers {
		if _, seen := byID[a.QuestionID]; !seen {
			byID[a.QuestionID] = a.Text
		}
	}

	pairs := make([]evaluation.QAPair, 0, len(questions))
	for i, q := range questions {
		answer, ok := byID[i+1]
		if !ok {
			answer = missingAnswer
		}
		qType := q.Type
		if qType == "" {
			qType = defaultQuestionType
		}
		pairs = append(pairs, evaluation.QAPair{Question: q.Text, Answer: answer, Type: qType})
	}
	return pairs
}

// RedFlashReasons lists why a result needs immediate attention. It is empty
// when the result is not a red flash.
func RedFlashReasons(r evaluation.Result) []string {
	var reasons []string
	if r.TotalScore < 60 {
		reasons = append(reasons, "score below 60")
	}
	if r.TotalScore < 70 && !r.Validated {
		reasons = append(reasons, "unvalidated score below 70")
	}
	return reasons
}

func numbered(questions []store.Question) []store.Question {
	out := make([]store.Question, len(questions))
	for i, q := range questions {
		q.ID = i + 1
		out[i] = q
	}
	return out
}
