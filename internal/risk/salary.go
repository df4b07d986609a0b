package risk

import (
	"fmt"

	"github.com/spigell/ta-nexus/internal/utils"
)

type Salary struct {
	CandidateAsk   float64 `json:"candidate_ask" yaml:"candidate_ask"`
	MarketAverage  float64 `json:"market_average" yaml:"market_average"`
	OveragePct     float64 `json:"overage_pct" yaml:"overage_pct"`
	Level          Level   `json:"risk_level" yaml:"risk_level"`
	Alert          bool    `json:"alert" yaml:"alert"`
	BelowMarket    bool    `json:"below_market" yaml:"below_market"`
	Recommendation string  `json:"recommendation" yaml:"recommendation"`
}

func AssessSalary(ask, marketAverage float64) Salary {
	if marketAverage <= 0 {
		return Salary{
			CandidateAsk:   ask,
			Level:          LevelUnknown,
			Recommendation: "No market data available to assess salary risk",
		}
	}

	overage := (ask - marketAverage) / marketAverage * 100
	res := Salary{
		CandidateAsk:  ask,
		MarketAverage: marketAverage,
		OveragePct:    utils.Round(overage, 1),
	}

	switch {
	case overage >= 30:
		res.Level = LevelHigh
		res.Alert = true
		res.Recommendation = fmt.Sprintf("Candidate asks %.0f%% above market. Negotiate down or reject based on budget.", overage)
	case overage >= 15:
		res.Level = LevelMedium
		res.Recommendation = fmt.Sprintf("Candidate asks %.0f%% above market. Some negotiation expected.", overage)
	case overage >= -10:
		res.Level = LevelLow
		res.Recommendation = "Salary expectation aligns well with market. Competitive offer likely to succeed."
	default:
		// below market is an opportunity, not a risk
		res.Level = LevelLow
		res.BelowMarket = true
		res.Recommendation = "Candidate asks below market. Strong value proposition, move quickly."
	}

	return res
}
