package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/failure"
)

// PostgresStore implements Repository on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		profile JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS screening_sessions (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		job_id TEXT NOT NULL DEFAULT '',
		job_description TEXT NOT NULL DEFAULT '',
		questions JSONB NOT NULL,
		answers JSONB,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		submitted_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS scores (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		candidate_id TEXT NOT NULL,
		total_score INTEGER NOT NULL,
		recommendation TEXT NOT NULL,
		validated BOOLEAN NOT NULL,
		red_flash BOOLEAN NOT NULL,
		result JSONB,
		scored_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scores_session ON scores(session_id, scored_at);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		follow_up_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		recruiter_note TEXT NOT NULL DEFAULT '',
		trigger_score DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		sent_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(status, follow_up_at);

	CREATE TABLE IF NOT EXISTS memory_snapshots (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		session_key TEXT NOT NULL,
		summary TEXT NOT NULL,
		key_facts JSONB NOT NULL,
		tokens_before INTEGER NOT NULL,
		tokens_after INTEGER NOT NULL,
		compression_ratio DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_key ON memory_snapshots(session_key, created_at);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertCandidate(ctx context.Context, c *candidate.Profile) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	profile, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, email, profile)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, email = $3, profile = $4, updated_at = NOW()`,
		c.ID, c.Name, c.Email, profile,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCandidate(ctx context.Context, id string) (*candidate.Profile, error) {
	var profile []byte
	err := s.pool.QueryRow(ctx, `SELECT profile FROM candidates WHERE id = $1`, id).Scan(&profile)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, failure.Missing("store.get_candidate", fmt.Errorf("candidate %q", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	var c candidate.Profile
	if err := json.Unmarshal(profile, &c); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *Session) error {
	prepareSession(sess)

	questions, err := json.Marshal(sess.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO screening_sessions (id, candidate_id, job_id, job_description, questions, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, sess.CandidateID, sess.JobID, sess.JobDescription, questions, string(sess.Status), sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		sess      Session
		questions []byte
		answers   []byte
		status    string
	)

	err := s.pool.QueryRow(ctx,
		`SELECT id, candidate_id, job_id, job_description, questions, answers, status, created_at, expires_at, submitted_at
		 FROM screening_sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.CandidateID, &sess.JobID, &sess.JobDescription, &questions, &answers,
		&status, &sess.CreatedAt, &sess.ExpiresAt, &sess.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, failure.Missing("store.get_session", fmt.Errorf("session %q", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := json.Unmarshal(questions, &sess.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &sess.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	sess.Status = SessionStatus(status)

	return &sess, nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, id string, answers []Answer, at time.Time) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE screening_sessions SET answers = $1, status = $2, submitted_at = $3 WHERE id = $4`,
		payload, string(SessionCompleted), at, id,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return requireTag(tag, "store.complete_session", id)
}

func (s *PostgresStore) SaveScore(ctx context.Context, score *Score) error {
	prepareScore(score)

	var result []byte
	if len(score.Result) > 0 {
		result = score.Result
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores (id, session_id, candidate_id, total_score, recommendation, validated, red_flash, result, scored_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		score.ID, score.SessionID, score.CandidateID, score.TotalScore, score.Recommendation,
		score.Validated, score.RedFlash, result, score.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestScore(ctx context.Context, sessionID string) (*Score, error) {
	var (
		score  Score
		result []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, candidate_id, total_score, recommendation, validated, red_flash, result, scored_at
		 FROM scores WHERE session_id = $1 ORDER BY scored_at DESC LIMIT 1`,
		sessionID,
	).Scan(&score.ID, &score.SessionID, &score.CandidateID, &score.TotalScore, &score.Recommendation,
		&score.Validated, &score.RedFlash, &result, &score.ScoredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, failure.Missing("store.latest_score", fmt.Errorf("session %q", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("get latest score: %w", err)
	}

	if len(result) > 0 {
		score.Result = json.RawMessage(result)
	}
	return &score, nil
}

func (s *PostgresStore) ScheduleReminder(ctx context.Context, r *Reminder) error {
	prepareReminder(r)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO reminders (id, candidate_id, session_id, follow_up_at, status, recruiter_note, trigger_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.CandidateID, r.SessionID, r.FollowUpAt, string(r.Status), r.Note, r.TriggerScore, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (s *PostgresStore) DueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, candidate_id, session_id, follow_up_at, status, recruiter_note, trigger_score, created_at
		 FROM reminders WHERE status = $1 AND follow_up_at <= $2 ORDER BY follow_up_at`,
		string(ReminderPending), now,
	)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		var (
			r      Reminder
			status string
		)
		if err := rows.Scan(&r.ID, &r.CandidateID, &r.SessionID, &r.FollowUpAt, &status, &r.Note, &r.TriggerScore, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		r.Status = ReminderStatus(status)
		reminders = append(reminders, &r)
	}

	return reminders, rows.Err()
}

func (s *PostgresStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reminders SET status = $1, sent_at = $2 WHERE id = $3`,
		string(ReminderSent), at, id,
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return requireTag(tag, "store.mark_reminder_sent", id)
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	prepareSnapshot(snap)

	facts, err := json.Marshal(snap.KeyFacts)
	if err != nil {
		return fmt.Errorf("marshal key facts: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO memory_snapshots (id, session_key, summary, key_facts, tokens_before, tokens_after, compression_ratio, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID, snap.SessionKey, snap.Summary, facts, snap.TokensBefore, snap.TokensAfter, snap.CompressionRatio, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, sessionKey string) (*Snapshot, error) {
	var (
		snap  Snapshot
		facts []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_key, summary, key_facts, tokens_before, tokens_after, compression_ratio, created_at
		 FROM memory_snapshots WHERE session_key = $1
		 ORDER BY created_at DESC, seq DESC LIMIT 1`,
		sessionKey,
	).Scan(&snap.ID, &snap.SessionKey, &snap.Summary, &facts, &snap.TokensBefore, &snap.TokensAfter, &snap.CompressionRatio, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, failure.Missing("store.latest_snapshot", fmt.Errorf("session key %q", sessionKey))
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	if err := json.Unmarshal(facts, &snap.KeyFacts); err != nil {
		return nil, fmt.Errorf("decode key facts: %w", err)
	}
	return &snap, nil
}

func requireTag(tag pgconn.CommandTag, op, id string) error {
	if tag.RowsAffected() == 0 {
		return failure.Missing(op, fmt.Errorf("id %q", id))
	}
	return nil
}
