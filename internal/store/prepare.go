package store

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long a screening link stays valid.
const SessionTTL = 7 * 24 * time.Hour

func prepareSession(s *Session) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SessionPending
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = s.CreatedAt.Add(SessionTTL)
	}
	if s.Questions == nil {
		s.Questions = []Question{}
	}
}

func prepareScore(s *Score) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.ScoredAt.IsZero() {
		s.ScoredAt = time.Now().UTC()
	}
}

func prepareReminder(r *Reminder) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = ReminderPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func prepareSnapshot(s *Snapshot) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.KeyFacts == nil {
		s.KeyFacts = []string{}
	}
}
