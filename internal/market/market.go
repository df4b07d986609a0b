// Package market benchmarks salaries and checks the financial health of the
// hiring company. Providers never fail: an unreachable API yields a neutral
// value marked as unavailable.
package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/ta-nexus/internal/utils"
)

const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"

	TrendGrowing   = "growing"
	TrendStable    = "stable"
	TrendDeclining = "declining"
	TrendUnknown   = "unknown"

	DefaultCurrency = "SAR"
)

type SalaryBenchmark struct {
	JobTitle      string  `json:"job_title" yaml:"job_title"`
	Location      string  `json:"location" yaml:"location"`
	Average       float64 `json:"average_salary" yaml:"average_salary"`
	Min           float64 `json:"min_salary" yaml:"min_salary"`
	Max           float64 `json:"max_salary" yaml:"max_salary"`
	SampleCount   int     `json:"job_count" yaml:"job_count"`
	Currency      string  `json:"currency" yaml:"currency"`
	RiskThreshold float64 `json:"salary_risk_threshold" yaml:"salary_risk_threshold"`
	Available     bool    `json:"data_available" yaml:"data_available"`
}

type CompanyHealth struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	LastPrice     float64 `json:"last_price" yaml:"last_price"`
	ChangePct     float64 `json:"price_change_pct" yaml:"price_change_pct"`
	Volume        int64   `json:"volume" yaml:"volume"`
	Trend         string  `json:"trend" yaml:"trend"`
	RetentionRisk string  `json:"retention_risk" yaml:"retention_risk"`
	Available     bool    `json:"data_available" yaml:"data_available"`
}

type SalaryProvider interface {
	Benchmark(ctx context.Context, title, location string) SalaryBenchmark
}

type CompanyProvider interface {
	Health(ctx context.Context, symbol string) CompanyHealth
}

// Report is the combined salary and company view for one candidate.
type Report struct {
	Salary         *SalaryBenchmark `json:"salary,omitempty" yaml:"salary,omitempty"`
	Company        *CompanyHealth   `json:"company,omitempty" yaml:"company,omitempty"`
	SalaryRisk     string           `json:"salary_risk" yaml:"salary_risk"`
	SalaryRiskPct  float64          `json:"salary_risk_pct" yaml:"salary_risk_pct"`
	CompanyTrend   string           `json:"company_trend" yaml:"company_trend"`
	FinancialAlert bool             `json:"financial_alert" yaml:"financial_alert"`
	Summary        string           `json:"market_summary" yaml:"market_summary"`
	Fallback       bool             `json:"fallback" yaml:"fallback"`
}

// FallbackReport is used when no market data could be gathered at all.
func FallbackReport() Report {
	return Report{
		SalaryRisk:   RiskUnknown,
		CompanyTrend: TrendUnknown,
		Fallback:     true,
	}
}

type Intel struct {
	salaries  SalaryProvider
	companies CompanyProvider
	currency  string
}

// NewIntel combines the providers. companies may be nil.
func NewIntel(salaries SalaryProvider, companies CompanyProvider, currency string) *Intel {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Intel{salaries: salaries, companies: companies, currency: currency}
}

// Intelligence benchmarks ask against the market for title and, when symbol
// is set, looks at the company stock trend. Salary risk stays unknown when
// the benchmark is not backed by live data.
func (i *Intel) Intelligence(ctx context.Context, title string, ask float64, symbol, location string) Report {
	bench := i.salaries.Benchmark(ctx, title, location)

	report := Report{
		Salary:       &bench,
		CompanyTrend: TrendUnknown,
	}

	if symbol != "" && i.companies != nil {
		health := i.companies.Health(ctx, symbol)
		report.Company = &health
		report.CompanyTrend = health.Trend
	}

	switch {
	case !bench.Available:
		// the average is only an estimate, it must not raise a budget alert
		report.SalaryRisk = RiskUnknown
		report.Summary = fmt.Sprintf("Market data unavailable for %s. Estimated average: %s %s.",
			title, FormatAmount(bench.Average), i.currency)
	case ask > 0 && bench.Average > 0:
		overage := (ask - bench.Average) / bench.Average * 100
		report.SalaryRisk = SalaryRisk(overage)
		report.SalaryRiskPct = utils.Round(overage, 1)

		verdict := "Within acceptable range"
		if report.SalaryRisk == RiskHigh {
			verdict = "HIGH BUDGET RISK"
		}
		report.Summary = fmt.Sprintf("Candidate asks %s %s. Market average: %s %s. %s.",
			FormatAmount(ask), i.currency, FormatAmount(bench.Average), i.currency, verdict)
	default:
		report.SalaryRisk = RiskUnknown
		report.Summary = fmt.Sprintf("Market average for %s: %s %s.", title, FormatAmount(bench.Average), i.currency)
	}

	report.FinancialAlert = report.SalaryRisk == RiskHigh

	return report
}

// SalaryRisk classifies how far above the market average an ask is.
func SalaryRisk(overagePct float64) string {
	switch {
	case overagePct >= 30:
		return RiskHigh
	case overagePct >= 15:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Trend classifies a price change over the observed window.
func Trend(changePct float64) (trend string, retentionRisk string) {
	switch {
	case changePct > 3:
		return TrendGrowing, RiskLow
	case changePct < -3:
		return TrendDeclining, RiskHigh
	default:
		return TrendStable, RiskMedium
	}
}

// FormatAmount renders v rounded to a whole number with thousands separators.
func FormatAmount(v float64) string {
	digits := strconv.FormatFloat(utils.Round(v, 0), 'f', 0, 64)

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
