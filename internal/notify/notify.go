// Package notify delivers red flash alerts and follow-up reminders to
// recruiters.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
)

// Alert describes a candidate that needs immediate human attention.
type Alert struct {
	CandidateID   string
	CandidateName string
	SessionID     string
	Source        string
	Score         int
	Decision      string
	Reasons       []string
}

// ReminderNotice asks a recruiter to follow up with a strong candidate.
type ReminderNotice struct {
	ReminderID    string
	CandidateID   string
	CandidateName string
	SessionID     string
	Score         float64
	Note          string
	DueAt         time.Time
}

type Notifier interface {
	RedFlash(ctx context.Context, alert Alert) error
	Reminder(ctx context.Context, notice ReminderNotice) error
}

func (a Alert) Text() string {
	name := a.CandidateName
	if name == "" {
		name = a.CandidateID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "RED FLASH: %s scored %d/100", name, a.Score)
	if a.Decision != "" {
		fmt.Fprintf(&b, " (decision: %s)", a.Decision)
	}
	if a.Source != "" {
		fmt.Fprintf(&b, " from %s", a.Source)
	}
	if a.SessionID != "" {
		fmt.Fprintf(&b, ", session %s", a.SessionID)
	}
	for _, reason := range a.Reasons {
		fmt.Fprintf(&b, "\n- %s", reason)
	}
	return b.String()
}

func (n ReminderNotice) Text() string {
	name := n.CandidateName
	if name == "" {
		name = n.CandidateID
	}

	text := fmt.Sprintf("Follow up with %s (score %.0f/100), due %s", name, n.Score, n.DueAt.UTC().Format(time.RFC3339))
	if n.Note != "" {
		text += "\nNote: " + n.Note
	}
	return text
}

// Log writes notifications to the logger. It is used when Slack is not configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{logger: logger.Component(log, "notify")}
}

func (l *Log) RedFlash(_ context.Context, alert Alert) error {
	l.logger.Warn("red flash",
		zap.String(logger.FieldCandidateID, alert.CandidateID),
		zap.String(logger.FieldSessionID, alert.SessionID),
		zap.Int("score", alert.Score),
		zap.String("decision", alert.Decision),
		zap.Strings("reasons", alert.Reasons),
	)
	return nil
}

func (l *Log) Reminder(_ context.Context, notice ReminderNotice) error {
	l.logger.Info("follow-up reminder",
		zap.String("reminder_id", notice.ReminderID),
		zap.String(logger.FieldCandidateID, notice.CandidateID),
		zap.Float64("score", notice.Score),
		zap.Time("due_at", notice.DueAt),
	)
	return nil
}
