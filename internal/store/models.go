package store

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderDismissed ReminderStatus = "dismissed"
)

type Question struct {
	ID          int    `json:"id" yaml:"id"`
	Text        string `json:"text" yaml:"text"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	IdealAnswer string `json:"ideal_answer,omitempty" yaml:"ideal_answer,omitempty"`
}

type Answer struct {
	QuestionID int    `json:"question_id" yaml:"question_id"`
	Text       string `json:"answer_text" yaml:"answer_text"`
}

type Session struct {
	ID             string        `json:"id" yaml:"id"`
	CandidateID    string        `json:"candidate_id" yaml:"candidate_id"`
	JobID          string        `json:"job_id" yaml:"job_id"`
	JobDescription string        `json:"job_description" yaml:"job_description"`
	Questions      []Question    `json:"questions" yaml:"questions"`
	Answers        []Answer      `json:"answers,omitempty" yaml:"answers,omitempty"`
	Status         SessionStatus `json:"status" yaml:"status"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
	ExpiresAt      time.Time     `json:"expires_at" yaml:"expires_at"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
}

// ScreeningURL is the relative link a candidate follows to answer the session.
func (s *Session) ScreeningURL() string {
	return "/screen/" + s.ID
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type Score struct {
	ID             string          `json:"id" yaml:"id"`
	SessionID      string          `json:"session_id" yaml:"session_id"`
	CandidateID    string          `json:"candidate_id" yaml:"candidate_id"`
	TotalScore     int             `json:"total_score" yaml:"total_score"`
	Recommendation string          `json:"recommendation" yaml:"recommendation"`
	Validated      bool            `json:"validated" yaml:"validated"`
	RedFlash       bool            `json:"red_flash" yaml:"red_flash"`
	Result         json.RawMessage `json:"result,omitempty" yaml:"-"`
	ScoredAt       time.Time       `json:"scored_at" yaml:"scored_at"`
}

type Reminder struct {
	ID           string         `json:"id" yaml:"id"`
	CandidateID  string         `json:"candidate_id" yaml:"candidate_id"`
	SessionID    string         `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	FollowUpAt   time.Time      `json:"follow_up_at" yaml:"follow_up_at"`
	Status       ReminderStatus `json:"status" yaml:"status"`
	Note         string         `json:"recruiter_note,omitempty" yaml:"recruiter_note,omitempty"`
	TriggerScore float64        `json:"trigger_score" yaml:"trigger_score"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	SentAt       *time.Time     `json:"sent_at,omitempty" yaml:"sent_at,omitempty"`
}

type Snapshot struct {
	ID               string    `json:"id" yaml:"id"`
	SessionKey       string    `json:"session_key" yaml:"session_key"`
	Summary          string    `json:"summary" yaml:"summary"`
	KeyFacts         []string  `json:"key_facts" yaml:"key_facts"`
	TokensBefore     int       `json:"tokens_before" yaml:"tokens_before"`
	TokensAfter      int       `json:"tokens_after" yaml:"tokens_after"`
	CompressionRatio float64   `json:"compression_ratio" yaml:"compression_ratio"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}
