package risk

import (
	"fmt"

	"github.com/spigell/ta-nexus/internal/utils"
)

const hopperThresholdMonths = 18

type Job struct {
	Title        string  `json:"title" yaml:"title" mapstructure:"title"`
	Company      string  `json:"company" yaml:"company" mapstructure:"company"`
	TenureMonths float64 `json:"duration_months" yaml:"duration_months" mapstructure:"duration_months"`
}

type Retention struct {
	AvgTenureMonths float64 `json:"avg_tenure_months" yaml:"avg_tenure_months"`
	JobCount        int     `json:"job_count" yaml:"job_count"`
	IsJobHopper     bool    `json:"is_job_hopper" yaml:"is_job_hopper"`
	Level           Level   `json:"risk_level" yaml:"risk_level"`
	Score           float64 `json:"risk_score" yaml:"risk_score"`
	Explanation     string  `json:"explanation" yaml:"explanation"`
}

func AssessRetention(history []Job) Retention {
	if len(history) == 0 {
		return Retention{
			Level:       LevelUnknown,
			Score:       50,
			Explanation: "No job history provided",
		}
	}

	var total float64
	for _, job := range history {
		total += job.TenureMonths
	}
	avg := total / float64(len(history))
	hopper := avg < hopperThresholdMonths

	level, score := retentionBand(avg)

	verdict := "Stable career trajectory."
	if hopper {
		verdict = "Job hopper detected, high flight risk."
	}

	return Retention{
		AvgTenureMonths: utils.Round(avg, 1),
		JobCount:        len(history),
		IsJobHopper:     hopper,
		Level:           level,
		Score:           score,
		Explanation:     fmt.Sprintf("Avg tenure: %.0f months across %d positions. %s", avg, len(history), verdict),
	}
}

func retentionBand(avg float64) (Level, float64) {
	switch {
	case avg >= 36:
		return LevelLow, 15
	case avg >= 24:
		return LevelMedium, 40
	case avg >= 12:
		return LevelMedium, 60
	default:
		return LevelHigh, 85
	}
}
