package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/apiclient"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/utils"
)

const (
	adzunaURL          = "https://api.adzuna.com/v1/api"
	adzunaCountry      = "sa"
	adzunaResultsLimit = 50

	fallbackAverage = 15000.0
	fallbackMin     = 8000.0
	fallbackMax     = 25000.0

	// riskThresholdFactor marks the ask above which a salary is a budget risk.
	riskThresholdFactor = 1.30
)

type AdzunaConfig struct {
	AppID    string `mapstructure:"app-id"`
	AppKey   string `mapstructure:"app-key"`
	Country  string `mapstructure:"country"`
	BaseURL  string `mapstructure:"base-url"`
	Currency string `mapstructure:"currency"`
}

// Adzuna benchmarks salaries with the Adzuna job search API.
type Adzuna struct {
	api    *apiclient.Client
	cfg    AdzunaConfig
	logger *zap.Logger
}

func NewAdzuna(api *apiclient.Client, cfg AdzunaConfig, log *zap.Logger) *Adzuna {
	if cfg.BaseURL == "" {
		cfg.BaseURL = adzunaURL
	}
	if cfg.Country == "" {
		cfg.Country = adzunaCountry
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}

	return &Adzuna{api: api, cfg: cfg, logger: logger.Component(log, "adzuna")}
}

type adzunaResponse struct {
	Count   *int          `json:"count"`
	Results []interface{} `json:"results"`
}

type adzunaJob struct {
	SalaryMin float64 `json:"salary_min"`
	SalaryMax float64 `json:"salary_max"`
}

func (a *Adzuna) Benchmark(ctx context.Context, title, location string) SalaryBenchmark {
	q := url.Values{}
	q.Set("app_id", a.cfg.AppID)
	q.Set("app_key", a.cfg.AppKey)
	q.Set("what", title)
	if location != "" {
		q.Set("where", location)
	}
	q.Set("results_per_page", strconv.Itoa(adzunaResultsLimit))
	q.Set("content-type", "application/json")

	endpoint := fmt.Sprintf("%s/jobs/%s/search/1", a.cfg.BaseURL, a.cfg.Country)

	var resp adzunaResponse
	if err := a.api.GetJSON(ctx, endpoint, q, &resp); err != nil {
		a.logger.Warn("salary benchmark unavailable, using estimate", zap.String("title", title), zap.Error(err))
		return a.fallback(title, location)
	}

	var jobs []adzunaJob
	if err := apiclient.DecodeItems(resp.Results, &jobs); err != nil {
		a.logger.Warn("failed to decode salary results, using estimate", zap.Error(err))
		return a.fallback(title, location)
	}

	bench := a.benchmarkFrom(title, location, jobs)
	bench.SampleCount = len(resp.Results)
	if resp.Count != nil {
		bench.SampleCount = *resp.Count
	}

	a.logger.Debug("salary benchmark", zap.String("title", title),
		zap.Float64("average", bench.Average), zap.Int("jobs", bench.SampleCount))

	return bench
}

// benchmarkFrom aggregates the advertised salaries. The upper bound is
// preferred when a vacancy sets both.
func (a *Adzuna) benchmarkFrom(title, location string, jobs []adzunaJob) SalaryBenchmark {
	var salaries []float64
	for _, job := range jobs {
		salary := job.SalaryMax
		if salary == 0 {
			salary = job.SalaryMin
		}
		if salary != 0 {
			salaries = append(salaries, salary)
		}
	}

	avg, lo, hi := fallbackAverage, fallbackMin, fallbackMax
	if len(salaries) > 0 {
		sum := 0.0
		lo, hi = salaries[0], salaries[0]
		for _, s := range salaries {
			sum += s
			lo = min(lo, s)
			hi = max(hi, s)
		}
		avg = sum / float64(len(salaries))
	}

	return SalaryBenchmark{
		JobTitle:      title,
		Location:      location,
		Average:       utils.Round(avg, 2),
		Min:           utils.Round(lo, 2),
		Max:           utils.Round(hi, 2),
		Currency:      a.cfg.Currency,
		RiskThreshold: utils.Round(avg*riskThresholdFactor, 2),
		Available:     true,
	}
}

func (a *Adzuna) fallback(title, location string) SalaryBenchmark {
	return SalaryBenchmark{
		JobTitle:      title,
		Location:      location,
		Average:       fallbackAverage,
		Min:           fallbackMin,
		Max:           fallbackMax,
		Currency:      a.cfg.Currency,
		RiskThreshold: fallbackAverage * riskThresholdFactor,
		Available:     false,
	}
}
