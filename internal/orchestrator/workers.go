package orchestrator

import (
	"context"
	"errors"
	"math"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/market"
	"github.com/spigell/ta-nexus/internal/utils"
)

const (
	strategicInstruction    = "You are a strategic HR advisor specializing in Saudi Vision 2030 talent compliance."
	intelligenceInstruction = "You are an elite recruitment analyst. Be precise and data-driven."
)

var (
	//go:embed prompts/strategic.md
	strategicTemplate string
	//go:embed prompts/intelligence.md
	intelligenceTemplate string
)

var errNoOracle = errors.New("oracle is not configured")

type strategicRecord struct {
	Alignment   string `json:"alignment" validate:"required"`
	Notes       string `json:"strategic_notes"`
	DomainColor string `json:"domain_color" validate:"oneof=green yellow red"`
	DomainAlert bool   `json:"domain_alert"`
}

type intelligenceRecord struct {
	Score          float64  `json:"overall_score"`
	SkillMatchPct  float64  `json:"skill_match_pct"`
	Gaps           []string `json:"skill_gaps"`
	Strengths      []string `json:"strengths"`
	Recommendation string   `json:"recommendation" validate:"oneof=advance screen reject"`
	RiskLevel      string   `json:"risk_level" validate:"oneof=low medium high"`
}

// Normalize keeps a badly cased or unknown color from discarding the report.
func (r *strategicRecord) Normalize() {
	r.DomainColor = ai.Enum(r.DomainColor, "yellow", "green", "yellow", "red")
}

func (r *intelligenceRecord) Normalize() {
	r.Recommendation = ai.Enum(r.Recommendation, string(evaluation.Screen),
		string(evaluation.Advance), string(evaluation.Screen), string(evaluation.Reject))
	r.RiskLevel = ai.Enum(r.RiskLevel, RiskMedium, RiskLow, RiskMedium, RiskHigh)
}

func (o *Orchestrator) runStrategic(ctx context.Context, profile candidate.Profile, jobDescription string) StrategicReport {
	rec := strategicRecord{DomainColor: "yellow"}
	err := o.ask(ctx, strategicTemplate, strategicInstruction, profile, jobDescription, &rec)
	if err != nil {
		o.workerFailed("strategic", err)
		return o.fallbacks.Strategic
	}

	return StrategicReport{
		Alignment:   strings.TrimSpace(rec.Alignment),
		Notes:       strings.TrimSpace(rec.Notes),
		DomainColor: rec.DomainColor,
		DomainAlert: rec.DomainAlert,
	}
}

func (o *Orchestrator) runIntelligence(ctx context.Context, profile candidate.Profile, jobDescription string) IntelligenceReport {
	rec := intelligenceRecord{
		Score:          50,
		SkillMatchPct:  50,
		Recommendation: string(evaluation.Screen),
		RiskLevel:      RiskMedium,
	}
	err := o.ask(ctx, intelligenceTemplate, intelligenceInstruction, profile, jobDescription, &rec)
	if err != nil {
		o.workerFailed("intelligence", err)
		fb := o.fallbacks.Intelligence
		fb.Gaps = append([]string(nil), fb.Gaps...)
		fb.Strengths = append([]string(nil), fb.Strengths...)
		return fb
	}

	return IntelligenceReport{
		Score:          int(math.Round(ai.Clamp(rec.Score, 0, 100))),
		SkillMatchPct:  utils.Round(ai.Clamp(rec.SkillMatchPct, 0, 100), 1),
		Gaps:           ai.CleanList(rec.Gaps),
		Strengths:      ai.CleanList(rec.Strengths),
		Recommendation: evaluation.Recommendation(rec.Recommendation),
		RiskLevel:      rec.RiskLevel,
	}
}

func (o *Orchestrator) runMarket(ctx context.Context, profile candidate.Profile, title string, salaryAsk float64) market.Report {
	if o.market == nil {
		o.workerFailed("market", failure.Upstream("market intelligence", errors.New("market providers are not configured")))
		return o.fallbacks.Market
	}

	return o.market.Intelligence(ctx, title, salaryAsk, profile.CompanySymbol, profile.Location)
}

// ask makes one JSON oracle call about a candidate and decodes it into dst,
// which carries the defaults.
func (o *Orchestrator) ask(ctx context.Context, template, instruction string, profile candidate.Profile, jobDescription string, dst any) error {
	if o.oracle == nil {
		return failure.Upstream("oracle", errNoOracle)
	}

	raw, err := o.oracle.Generate(ctx, ai.Request{
		Prompt: ai.RenderPrompt(template, map[string]string{
			"CANDIDATE":       ai.MustJSON(profile),
			"JOB_DESCRIPTION": strings.TrimSpace(jobDescription),
		}),
		SystemInstruction: instruction,
		JSON:              true,
	})
	if err != nil {
		return err
	}

	return ai.DecodeJSON(raw, dst)
}

func (o *Orchestrator) workerFailed(worker string, err error) {
	kind, _ := failure.KindOf(err)
	o.logger.Warn("worker fell back to neutral report",
		zap.String("worker", worker),
		zap.Stringer("kind", kind),
		zap.Error(err),
	)
}

func listText(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}
