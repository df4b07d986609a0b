// Package orchestrator fans a candidate out to the strategic, intelligence
// and market workers and merges their reports into one hiring decision.
package orchestrator

import (
	"context"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/contact"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/market"
	"github.com/spigell/ta-nexus/internal/risk"
)

const unknownRole = "Unknown Role"

//go:embed prompts/summary.md
var summaryTemplate string

type MarketIntel interface {
	Intelligence(ctx context.Context, title string, ask float64, symbol, location string) market.Report
}

type ContactDiscovery interface {
	Discover(ctx context.Context, domain, firstName, lastName string) contact.Report
}

// Deps are the collaborators of the orchestrator. Any of them may be nil,
// the matching worker then reports its fallback.
type Deps struct {
	Oracle   ai.Oracle
	Market   MarketIntel
	Contacts ContactDiscovery
}

type Options struct {
	Thresholds Thresholds
	Fallbacks  *Fallbacks
}

type Orchestrator struct {
	oracle     ai.Oracle
	market     MarketIntel
	contacts   ContactDiscovery
	thresholds Thresholds
	fallbacks  Fallbacks
	logger     *zap.Logger
}

func New(deps Deps, opts Options, log *zap.Logger) *Orchestrator {
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	fallbacks := DefaultFallbacks()
	if opts.Fallbacks != nil {
		fallbacks = *opts.Fallbacks
	}

	return &Orchestrator{
		oracle:     deps.Oracle,
		market:     deps.Market,
		contacts:   deps.Contacts,
		thresholds: thresholds,
		fallbacks:  fallbacks,
		logger:     logger.Component(log, "orchestrator"),
	}
}

// RunAnalysis runs the three workers concurrently and merges them once all
// of them are done. Worker failures are absorbed into their fallbacks, so
// the analysis itself never fails. There are no per worker timeouts: ctx is
// the only way to bound a run.
func (o *Orchestrator) RunAnalysis(ctx context.Context, profile candidate.Profile, job candidate.JobRequirement, salaryAsk float64) Report {
	log := o.logger.With(logger.SessionFields("", profile.ID)...)

	title := roleTitle(profile, job)
	jobDescription := job.Description
	if strings.TrimSpace(jobDescription) == "" {
		jobDescription = job.Title
	}

	var (
		strategic StrategicReport
		intel     IntelligenceReport
		mkt       market.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		strategic = o.runStrategic(gctx, profile.Clone(), jobDescription)
		return nil
	})
	g.Go(func() error {
		intel = o.runIntelligence(gctx, profile.Clone(), jobDescription)
		return nil
	})
	g.Go(func() error {
		mkt = o.runMarket(gctx, profile.Clone(), title, salaryAsk)
		return nil
	})
	// Workers never return errors, Wait is only the join barrier.
	_ = g.Wait()

	composite := CompositeRisk(intel, mkt, strategic)
	redFlash := float64(composite) >= o.thresholds.RedFlash
	decision := o.thresholds.Decide(intel.Score, redFlash)

	report := Report{
		CandidateName: profile.Name,
		JobTitle:      title,
		Strategic:     strategic,
		Hunt: HuntReport{
			OutreachMethod: contact.OutreachLinkedIn,
			OutreachStatus: HuntNotRun,
		},
		Intelligence:  intel,
		Market:        mkt,
		CompositeRisk: composite,
		Decision:      decision,
		RedFlash:      redFlash,
	}
	if report.CandidateName == "" {
		report.CandidateName = "Unknown"
	}

	if len(job.RequiredSkills) > 0 {
		matrix := o.riskMatrix(profile, job, salaryAsk, mkt)
		report.RiskMatrix = &matrix
	}

	report.ExecutiveSummary = o.summary(ctx, log, report)

	log.Info("analysis complete",
		zap.Int("score", intel.Score),
		zap.Int("composite_risk", composite),
		zap.Bool("red_flash", redFlash),
		zap.String("decision", string(decision)),
	)

	return report
}

func (o *Orchestrator) riskMatrix(profile candidate.Profile, job candidate.JobRequirement, salaryAsk float64, mkt market.Report) risk.Matrix {
	var average float64
	if mkt.Salary != nil && mkt.Salary.Available {
		average = mkt.Salary.Average
	}
	if salaryAsk <= 0 {
		salaryAsk = profile.SalaryAsk
	}

	return risk.Build(risk.Input{
		RequiredSkills:  job.RequiredSkills,
		CandidateSkills: profile.Skills,
		JobHistory:      profile.JobHistory,
		CandidateAsk:    salaryAsk,
		MarketAverage:   average,
	})
}

// summary asks for a short narrative. Failure yields an empty summary.
func (o *Orchestrator) summary(ctx context.Context, log *zap.Logger, r Report) string {
	if o.oracle == nil {
		return ""
	}

	prompt := ai.RenderPrompt(summaryTemplate, map[string]string{
		"SCORE":       strconv.Itoa(r.Intelligence.Score),
		"STRENGTHS":   listText(r.Intelligence.Strengths),
		"GAPS":        listText(r.Intelligence.Gaps),
		"SALARY_RISK": r.Market.SalaryRisk,
		"ALIGNMENT":   r.Strategic.Alignment,
		"DECISION":    string(r.Decision),
	})

	text, err := o.oracle.Generate(ctx, ai.Request{Prompt: prompt})
	if err != nil {
		log.Warn("executive summary unavailable", zap.Error(err))
		return ""
	}

	return strings.TrimSpace(text)
}

func roleTitle(profile candidate.Profile, job candidate.JobRequirement) string {
	switch {
	case strings.TrimSpace(profile.CurrentTitle) != "":
		return strings.TrimSpace(profile.CurrentTitle)
	case strings.TrimSpace(job.Title) != "":
		return strings.TrimSpace(job.Title)
	default:
		return unknownRole
	}
}
