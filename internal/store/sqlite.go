package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/failure"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates when missing) the database file at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// a single writer avoids SQLITE_BUSY between the dispatcher and the CLI
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		profile_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS screening_sessions (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		job_id TEXT NOT NULL DEFAULT '',
		job_description TEXT NOT NULL DEFAULT '',
		questions_json TEXT NOT NULL,
		answers_json TEXT,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		submitted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_candidate ON screening_sessions(candidate_id);

	CREATE TABLE IF NOT EXISTS scores (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		candidate_id TEXT NOT NULL,
		total_score INTEGER NOT NULL,
		recommendation TEXT NOT NULL,
		validated INTEGER NOT NULL,
		red_flash INTEGER NOT NULL,
		result_json TEXT,
		scored_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scores_session ON scores(session_id, scored_at);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		follow_up_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		recruiter_note TEXT NOT NULL DEFAULT '',
		trigger_score REAL NOT NULL,
		created_at INTEGER NOT NULL,
		sent_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(status, follow_up_at);

	CREATE TABLE IF NOT EXISTS memory_snapshots (
		id TEXT PRIMARY KEY,
		session_key TEXT NOT NULL,
		summary TEXT NOT NULL,
		key_facts_json TEXT NOT NULL,
		tokens_before INTEGER NOT NULL,
		tokens_after INTEGER NOT NULL,
		compression_ratio REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_key ON memory_snapshots(session_key, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c *candidate.Profile) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	profile, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}

	now := time.Now().UTC().Unix()
	query := `
	INSERT INTO candidates (id, name, email, profile_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		profile_json = excluded.profile_json,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, string(profile), now, now); err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, id string) (*candidate.Profile, error) {
	var profile string
	err := s.db.QueryRowContext(ctx, `SELECT profile_json FROM candidates WHERE id = ?`, id).Scan(&profile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failure.Missing("store.get_candidate", fmt.Errorf("candidate %q", id))
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate row: %w", err)
	}

	var c candidate.Profile
	if err := json.Unmarshal([]byte(profile), &c); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *Session) error {
	prepareSession(sess)

	questions, err := json.Marshal(sess.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	query := `
	INSERT INTO screening_sessions (id, candidate_id, job_id, job_description, questions_json, status, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		sess.ID, sess.CandidateID, sess.JobID, sess.JobDescription, string(questions),
		string(sess.Status), sess.CreatedAt.Unix(), sess.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, candidate_id, job_id, job_description, questions_json, answers_json,
		       status, created_at, expires_at, submitted_at
		FROM screening_sessions WHERE id = ?`

	var (
		sess                 Session
		questions            string
		answers              sql.NullString
		status               string
		createdAt, expiresAt int64
		submittedAt          sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.CandidateID, &sess.JobID, &sess.JobDescription, &questions, &answers,
		&status, &createdAt, &expiresAt, &submittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failure.Missing("store.get_session", fmt.Errorf("session %q", id))
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if err := json.Unmarshal([]byte(questions), &sess.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if answers.Valid && answers.String != "" {
		if err := json.Unmarshal([]byte(answers.String), &sess.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}

	sess.Status = SessionStatus(status)
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	if submittedAt.Valid {
		at := time.Unix(submittedAt.Int64, 0).UTC()
		sess.SubmittedAt = &at
	}

	return &sess, nil
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, id string, answers []Answer, at time.Time) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE screening_sessions SET answers_json = ?, status = ?, submitted_at = ? WHERE id = ?`,
		string(payload), string(SessionCompleted), at.Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	return requireAffected(result, "store.complete_session", id)
}

func (s *SQLiteStore) SaveScore(ctx context.Context, score *Score) error {
	prepareScore(score)

	query := `
	INSERT INTO scores (id, session_id, candidate_id, total_score, recommendation, validated, red_flash, result_json, scored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		score.ID, score.SessionID, score.CandidateID, score.TotalScore, score.Recommendation,
		score.Validated, score.RedFlash, nullableJSON(score.Result), score.ScoredAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestScore(ctx context.Context, sessionID string) (*Score, error) {
	query := `
		SELECT id, session_id, candidate_id, total_score, recommendation, validated, red_flash, result_json, scored_at
		FROM scores WHERE session_id = ?
		ORDER BY scored_at DESC, rowid DESC LIMIT 1`

	var (
		score    Score
		result   sql.NullString
		scoredAt int64
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&score.ID, &score.SessionID, &score.CandidateID, &score.TotalScore, &score.Recommendation,
		&score.Validated, &score.RedFlash, &result, &scoredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failure.Missing("store.latest_score", fmt.Errorf("session %q", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("scan score row: %w", err)
	}

	if result.Valid {
		score.Result = json.RawMessage(result.String)
	}
	score.ScoredAt = time.Unix(scoredAt, 0).UTC()
	return &score, nil
}

func (s *SQLiteStore) ScheduleReminder(ctx context.Context, r *Reminder) error {
	prepareReminder(r)

	query := `
	INSERT INTO reminders (id, candidate_id, session_id, follow_up_at, status, recruiter_note, trigger_score, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.CandidateID, r.SessionID, r.FollowUpAt.Unix(), string(r.Status), r.Note, r.TriggerScore, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	query := `
		SELECT id, candidate_id, session_id, follow_up_at, status, recruiter_note, trigger_score, created_at
		FROM reminders
		WHERE status = ? AND follow_up_at <= ?
		ORDER BY follow_up_at`

	rows, err := s.db.QueryContext(ctx, query, string(ReminderPending), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		var (
			r                     Reminder
			status                string
			followUpAt, createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.CandidateID, &r.SessionID, &followUpAt, &status, &r.Note, &r.TriggerScore, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		r.Status = ReminderStatus(status)
		r.FollowUpAt = time.Unix(followUpAt, 0).UTC()
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		reminders = append(reminders, &r)
	}

	return reminders, rows.Err()
}

func (s *SQLiteStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET status = ?, sent_at = ? WHERE id = ?`,
		string(ReminderSent), at.Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}

	return requireAffected(result, "store.mark_reminder_sent", id)
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	prepareSnapshot(snap)

	facts, err := json.Marshal(snap.KeyFacts)
	if err != nil {
		return fmt.Errorf("marshal key facts: %w", err)
	}

	query := `
	INSERT INTO memory_snapshots (id, session_key, summary, key_facts_json, tokens_before, tokens_after, compression_ratio, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		snap.ID, snap.SessionKey, snap.Summary, string(facts),
		snap.TokensBefore, snap.TokensAfter, snap.CompressionRatio, snap.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, sessionKey string) (*Snapshot, error) {
	query := `
		SELECT id, session_key, summary, key_facts_json, tokens_before, tokens_after, compression_ratio, created_at
		FROM memory_snapshots WHERE session_key = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`

	var (
		snap      Snapshot
		facts     string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, sessionKey).Scan(
		&snap.ID, &snap.SessionKey, &snap.Summary, &facts,
		&snap.TokensBefore, &snap.TokensAfter, &snap.CompressionRatio, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failure.Missing("store.latest_snapshot", fmt.Errorf("session key %q", sessionKey))
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot row: %w", err)
	}

	if err := json.Unmarshal([]byte(facts), &snap.KeyFacts); err != nil {
		return nil, fmt.Errorf("decode key facts: %w", err)
	}
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	return &snap, nil
}

func requireAffected(result sql.Result, op, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return failure.Missing(op, fmt.Errorf("id %q", id))
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
