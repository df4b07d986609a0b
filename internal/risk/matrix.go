package risk

import (
	"github.com/spigell/ta-nexus/internal/utils"
)

type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

const RedFlashThreshold = 70.0

// Weights of each sub-score in the aggregate. They sum to 100.
var Weights = struct {
	Skill     float64
	Retention float64
	Salary    float64
	Cultural  float64
}{
	Skill:     35,
	Retention: 25,
	Salary:    25,
	Cultural:  15,
}

type Input struct {
	RequiredSkills  []string `json:"required_skills" yaml:"required_skills" mapstructure:"required_skills"`
	CandidateSkills []string `json:"candidate_skills" yaml:"candidate_skills" mapstructure:"candidate_skills"`
	JobHistory      []Job    `json:"job_history" yaml:"job_history" mapstructure:"job_history"`
	CandidateAsk    float64  `json:"candidate_ask" yaml:"candidate_ask" mapstructure:"candidate_ask"`
	MarketAverage   float64  `json:"market_average" yaml:"market_average" mapstructure:"market_average"`
	Answers         []string `json:"answers" yaml:"answers" mapstructure:"answers"`
}

type Matrix struct {
	SkillGap           SkillGap  `json:"skill_gap" yaml:"skill_gap"`
	Retention          Retention `json:"retention" yaml:"retention"`
	Salary             Salary    `json:"salary" yaml:"salary"`
	Cultural           Cultural  `json:"cultural" yaml:"cultural"`
	AggregateRiskScore float64   `json:"aggregate_risk_score" yaml:"aggregate_risk_score"`
	RiskColor          Color     `json:"risk_color" yaml:"risk_color"`
	RedFlashRequired   bool      `json:"red_flash_required" yaml:"red_flash_required"`
}

// Build combines the four sub-assessments into one weighted matrix.
func Build(in Input) Matrix {
	skill := CalculateSkillGap(in.RequiredSkills, in.CandidateSkills)
	retention := AssessRetention(in.JobHistory)
	salary := AssessSalary(in.CandidateAsk, in.MarketAverage)
	cultural := AssessCultural(in.Answers)

	aggregate := Aggregate(100-skill.MatchPct, retention.Score, salaryRiskScore(salary.Level), 100-cultural.ToneScore)

	return Matrix{
		SkillGap:           skill,
		Retention:          retention,
		Salary:             salary,
		Cultural:           cultural,
		AggregateRiskScore: utils.Round(aggregate, 1),
		RiskColor:          ColorFor(aggregate),
		RedFlashRequired:   aggregate >= RedFlashThreshold,
	}
}

// Aggregate is the weighted mean of the four sub risk scores, each expected in [0, 100].
func Aggregate(skill, retention, salary, cultural float64) float64 {
	return skill*Weights.Skill/100 +
		retention*Weights.Retention/100 +
		salary*Weights.Salary/100 +
		cultural*Weights.Cultural/100
}

func ColorFor(aggregate float64) Color {
	switch {
	case aggregate < 25:
		return ColorGreen
	case aggregate < 50:
		return ColorYellow
	case aggregate < RedFlashThreshold:
		return ColorOrange
	default:
		return ColorRed
	}
}

func salaryRiskScore(level Level) float64 {
	switch level {
	case LevelHigh:
		return 80
	case LevelMedium:
		return 40
	default:
		return 10
	}
}
