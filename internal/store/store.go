// Package store persists candidates, screening sessions, scores, reminders
// and memory snapshots.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/ta-nexus/internal/candidate"
)

// Repository is the persistence contract used by the screening flow, the
// reminder dispatcher and the memory compactor. Lookups of missing entities
// return a failure.NotFound error.
type Repository interface {
	UpsertCandidate(ctx context.Context, c *candidate.Profile) error
	GetCandidate(ctx context.Context, id string) (*candidate.Profile, error)

	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	// CompleteSession stores the submitted answers and marks the session completed.
	CompleteSession(ctx context.Context, id string, answers []Answer, at time.Time) error

	SaveScore(ctx context.Context, s *Score) error
	LatestScore(ctx context.Context, sessionID string) (*Score, error)

	ScheduleReminder(ctx context.Context, r *Reminder) error
	// DueReminders returns pending reminders whose follow-up time is not after now.
	DueReminders(ctx context.Context, now time.Time) ([]*Reminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	SaveSnapshot(ctx context.Context, s *Snapshot) error
	// LatestSnapshot returns the most recently created snapshot for the key.
	LatestSnapshot(ctx context.Context, sessionKey string) (*Snapshot, error)

	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSQLitePath = "ta-nexus.db"
)

type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Open returns the repository for the configured driver. SQLite is the default.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)

	switch driver {
	case "", DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return NewSQLite(dsn)
	case DriverPostgres, "postgresql", "pgx":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires a dsn")
		}
		return NewPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
