package orchestrator

import (
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/market"
	"github.com/spigell/ta-nexus/internal/risk"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	HuntReady            = "ready"
	HuntLinkedInFallback = "linkedin_fallback"
	HuntNotRun           = "not_run"
)

// Composite risk contributions of each worker signal.
const (
	intelligenceRiskWeight = 40
	salaryRiskWeight       = 35
	domainAlertWeight      = 25
)

// Thresholds gate the intelligence score into a decision. They are tuned
// separately from the interview evaluation thresholds.
type Thresholds struct {
	Advance  float64 `mapstructure:"advance"`
	Screen   float64 `mapstructure:"screen"`
	RedFlash float64 `mapstructure:"red-flash"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Advance: 85, Screen: 60, RedFlash: 70}
}

// Decide applies the score gates. A red flash never advances.
func (t Thresholds) Decide(score int, redFlash bool) evaluation.Recommendation {
	switch {
	case float64(score) >= t.Advance && !redFlash:
		return evaluation.Advance
	case float64(score) >= t.Screen:
		return evaluation.Screen
	default:
		return evaluation.Reject
	}
}

type StrategicReport struct {
	Alignment   string `json:"alignment" yaml:"alignment"`
	Notes       string `json:"strategic_notes" yaml:"strategic_notes"`
	DomainColor string `json:"domain_color" yaml:"domain_color"`
	DomainAlert bool   `json:"domain_alert" yaml:"domain_alert"`
	Fallback    bool   `json:"fallback" yaml:"fallback"`
}

type IntelligenceReport struct {
	Score          int                       `json:"overall_score" yaml:"overall_score"`
	SkillMatchPct  float64                   `json:"skill_match_pct" yaml:"skill_match_pct"`
	Gaps           []string                  `json:"skill_gaps" yaml:"skill_gaps"`
	Strengths      []string                  `json:"strengths" yaml:"strengths"`
	Recommendation evaluation.Recommendation `json:"recommendation" yaml:"recommendation"`
	RiskLevel      string                    `json:"risk_level" yaml:"risk_level"`
	Fallback       bool                      `json:"fallback" yaml:"fallback"`
}

type HuntRequest struct {
	JobTitle      string   `json:"job_title" yaml:"job_title"`
	CompanyDomain string   `json:"company_domain" yaml:"company_domain"`
	FirstName     string   `json:"first_name" yaml:"first_name"`
	LastName      string   `json:"last_name" yaml:"last_name"`
	Location      string   `json:"location" yaml:"location"`
	Skills        []string `json:"skills,omitempty" yaml:"skills,omitempty"`
}

type HuntReport struct {
	SniperURL      string `json:"linkedin_sniper_url" yaml:"linkedin_sniper_url"`
	LinkedInURL    string `json:"linkedin_search_url,omitempty" yaml:"linkedin_search_url,omitempty"`
	EmailFound     string `json:"email_found,omitempty" yaml:"email_found,omitempty"`
	EmailVerified  bool   `json:"email_verified" yaml:"email_verified"`
	OutreachMethod string `json:"outreach_method" yaml:"outreach_method"`
	OutreachStatus string `json:"outreach_status" yaml:"outreach_status"`
}

// Report is the merged outcome of one analysis run.
type Report struct {
	CandidateName    string                    `json:"candidate_name" yaml:"candidate_name"`
	JobTitle         string                    `json:"job_title" yaml:"job_title"`
	Strategic        StrategicReport           `json:"strategic" yaml:"strategic"`
	Hunt             HuntReport                `json:"hunt" yaml:"hunt"`
	Intelligence     IntelligenceReport        `json:"intelligence" yaml:"intelligence"`
	Market           market.Report             `json:"market" yaml:"market"`
	CompositeRisk    int                       `json:"composite_risk" yaml:"composite_risk"`
	Decision         evaluation.Recommendation `json:"final_decision" yaml:"final_decision"`
	RedFlash         bool                      `json:"red_flash" yaml:"red_flash"`
	ExecutiveSummary string                    `json:"executive_summary" yaml:"executive_summary"`
	RiskMatrix       *risk.Matrix              `json:"risk_matrix,omitempty" yaml:"risk_matrix,omitempty"`
}

// Fallbacks are the neutral worker reports used when a worker fails.
type Fallbacks struct {
	Strategic    StrategicReport
	Intelligence IntelligenceReport
	Market       market.Report
}

func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		Strategic: StrategicReport{
			Alignment:   "MEDIUM — Could not fully assess alignment",
			Notes:       "Manual review recommended",
			DomainColor: "yellow",
			DomainAlert: false,
			Fallback:    true,
		},
		Intelligence: IntelligenceReport{
			Score:          50,
			SkillMatchPct:  50,
			Gaps:           []string{"Assessment could not complete — manual review needed"},
			Strengths:      []string{"Profile received successfully"},
			Recommendation: evaluation.Screen,
			RiskLevel:      RiskMedium,
			Fallback:       true,
		},
		Market: market.FallbackReport(),
	}
}

// CompositeRisk adds up the worker risk signals.
func CompositeRisk(intel IntelligenceReport, mkt market.Report, strategic StrategicReport) int {
	score := 0
	if intel.RiskLevel == RiskHigh {
		score += intelligenceRiskWeight
	}
	if mkt.SalaryRisk == market.RiskHigh {
		score += salaryRiskWeight
	}
	if strategic.DomainAlert {
		score += domainAlertWeight
	}
	return score
}
