// Package memory compacts long running session context into a dense summary
// plus a short list of key facts.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/store"
	"github.com/spigell/ta-nexus/internal/utils"
)

const (
	DefaultThreshold = 3000
	tokensPerWord    = 1.3

	fallbackRunes   = 500
	fallbackSummary = "Session context preserved."

	compactInstruction = "You compress recruiting conversations without losing names, scores, decisions or action items."
)

//go:embed prompts/compact.md
var compactTemplate string

type Snapshot struct {
	SessionID        string    `json:"session_id" yaml:"session_id"`
	Summary          string    `json:"summary" yaml:"summary"`
	KeyFacts         []string  `json:"key_facts" yaml:"key_facts"`
	TokensBefore     int       `json:"tokens_before" yaml:"tokens_before"`
	TokensAfter      int       `json:"tokens_after" yaml:"tokens_after"`
	CompressionRatio float64   `json:"compression_ratio" yaml:"compression_ratio"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// EstimateTokens approximates a token count from the number of words.
func EstimateTokens(text string) float64 {
	return float64(utils.WordCount(text)) * tokensPerWord
}

// ShouldCompact reports whether text has reached threshold estimated tokens.
// A non-positive threshold falls back to DefaultThreshold.
func ShouldCompact(text string, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return EstimateTokens(text) >= float64(threshold)
}

type Compactor struct {
	oracle    ai.Oracle
	repo      store.Repository
	threshold int
	logger    *zap.Logger
	now       func() time.Time
}

type Options struct {
	// Threshold is the estimated token count that triggers compaction.
	Threshold int `mapstructure:"threshold"`
}

// New builds a compactor. repo may be nil when snapshots are not persisted.
func New(oracle ai.Oracle, repo store.Repository, opts Options, log *zap.Logger) *Compactor {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Compactor{
		oracle:    oracle,
		repo:      repo,
		threshold: threshold,
		logger:    logger.Component(log, "memory"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type compactResponse struct {
	Summary  string   `json:"summary"`
	KeyFacts []string `json:"key_facts"`
}

// Compact summarizes text. It never fails: when the oracle call or decoding
// fails the summary is the head of text and no facts are kept.
func (c *Compactor) Compact(ctx context.Context, sessionID, text string) Snapshot {
	summary, facts, err := c.summarize(ctx, text)
	if err != nil {
		c.logger.Warn("compaction fell back to truncation",
			zap.String(logger.FieldSessionID, sessionID),
			zap.Error(err),
		)
		summary, facts = truncate(text, fallbackRunes), []string{}
	}

	before := utils.WordCount(text)
	after := utils.WordCount(summary)
	for _, fact := range facts {
		after += utils.WordCount(fact)
	}

	snap := Snapshot{
		SessionID:        sessionID,
		Summary:          summary,
		KeyFacts:         facts,
		TokensBefore:     before,
		TokensAfter:      after,
		CompressionRatio: utils.Round(float64(before)/float64(max(after, 1)), 2),
		CreatedAt:        c.now(),
	}

	c.logger.Debug("context compacted",
		zap.String(logger.FieldSessionID, sessionID),
		zap.Int("tokens_before", snap.TokensBefore),
		zap.Int("tokens_after", snap.TokensAfter),
		zap.Float64("compression_ratio", snap.CompressionRatio),
	)

	return snap
}

func (c *Compactor) summarize(ctx context.Context, text string) (string, []string, error) {
	if c.oracle == nil {
		return "", nil, errors.New("oracle is not configured")
	}

	raw, err := c.oracle.Generate(ctx, ai.Request{
		Prompt:            ai.RenderPrompt(compactTemplate, map[string]string{"CONVERSATION": text}),
		SystemInstruction: compactInstruction,
		JSON:              true,
	})
	if err != nil {
		return "", nil, err
	}

	resp := compactResponse{Summary: fallbackSummary}
	if err := ai.DecodeJSON(raw, &resp); err != nil {
		return "", nil, err
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		summary = fallbackSummary
	}
	return summary, ai.CleanList(resp.KeyFacts), nil
}

// CompactIfNeeded compacts and persists text once it crosses the configured
// threshold. The second return value is false when no compaction was needed.
func (c *Compactor) CompactIfNeeded(ctx context.Context, sessionKey, text string) (Snapshot, bool, error) {
	if !ShouldCompact(text, c.threshold) {
		return Snapshot{}, false, nil
	}

	snap := c.Compact(ctx, sessionKey, text)
	if c.repo == nil {
		return snap, true, nil
	}

	record := &store.Snapshot{
		SessionKey:       sessionKey,
		Summary:          snap.Summary,
		KeyFacts:         snap.KeyFacts,
		TokensBefore:     snap.TokensBefore,
		TokensAfter:      snap.TokensAfter,
		CompressionRatio: snap.CompressionRatio,
		CreatedAt:        snap.CreatedAt,
	}
	if err := c.repo.SaveSnapshot(ctx, record); err != nil {
		return snap, true, fmt.Errorf("save snapshot: %w", err)
	}

	return snap, true, nil
}

// Latest returns the most recent persisted snapshot for sessionKey.
func (c *Compactor) Latest(ctx context.Context, sessionKey string) (Snapshot, error) {
	if c.repo == nil {
		return Snapshot{}, errors.New("snapshot store is not configured")
	}

	record, err := c.repo.LatestSnapshot(ctx, sessionKey)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		SessionID:        record.SessionKey,
		Summary:          record.Summary,
		KeyFacts:         record.KeyFacts,
		TokensBefore:     record.TokensBefore,
		TokensAfter:      record.TokensAfter,
		CompressionRatio: record.CompressionRatio,
		CreatedAt:        record.CreatedAt,
	}, nil
}

// RebuildContext renders a snapshot back into prompt text.
func RebuildContext(s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[NEXUS MEMORY — Session %s]\n", s.SessionID)
	fmt.Fprintf(&b, "Summary: %s\n", s.Summary)
	b.WriteString("Key Facts:\n")
	for _, fact := range s.KeyFacts {
		fmt.Fprintf(&b, "- %s\n", fact)
	}
	return b.String()
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
