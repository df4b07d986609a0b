package evaluation

type Recommendation string

const (
	Advance Recommendation = "advance"
	Screen  Recommendation = "screen"
	Reject  Recommendation = "reject"
)

// Thresholds gate a 0-100 score into a recommendation.
type Thresholds struct {
	Advance float64 `mapstructure:"advance"`
	Screen  float64 `mapstructure:"screen"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Advance: 85, Screen: 60}
}

func (t Thresholds) Recommend(score float64) Recommendation {
	switch {
	case score >= t.Advance:
		return Advance
	case score >= t.Screen:
		return Screen
	default:
		return Reject
	}
}

type QAPair struct {
	Question string `json:"question" yaml:"question" mapstructure:"question"`
	Answer   string `json:"answer" yaml:"answer" mapstructure:"answer"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}

type QuestionScore struct {
	Question         string  `json:"question" yaml:"question"`
	CandidateAnswer  string  `json:"candidate_answer" yaml:"candidate_answer"`
	IdealAnswer      string  `json:"ideal_answer" yaml:"ideal_answer"`
	Score            float64 `json:"score" yaml:"score"`
	Feedback         string  `json:"feedback" yaml:"feedback"`
	WeaknessDetected bool    `json:"weakness_detected" yaml:"weakness_detected"`
}

// Result is built once per evaluation and never modified afterwards.
type Result struct {
	SessionID        string          `json:"session_id" yaml:"session_id"`
	TotalScore       int             `json:"total_score" yaml:"total_score"`
	FirstPassScore   int             `json:"first_pass_score" yaml:"first_pass_score"`
	Breakdown        []QuestionScore `json:"score_breakdown" yaml:"score_breakdown"`
	Strengths        []string        `json:"strengths" yaml:"strengths"`
	Weaknesses       []string        `json:"weaknesses" yaml:"weaknesses"`
	CulturalFitScore int             `json:"cultural_fit_score" yaml:"cultural_fit_score"`
	TechnicalScore   int             `json:"technical_score" yaml:"technical_score"`
	BehavioralScore  int             `json:"behavioral_score" yaml:"behavioral_score"`
	InterviewTraps   []string        `json:"interview_traps" yaml:"interview_traps"`
	Recommendation   Recommendation  `json:"recommendation" yaml:"recommendation"`
	Validated        bool            `json:"validated" yaml:"validated"`
	WasAdjusted      bool            `json:"was_adjusted" yaml:"was_adjusted"`
	BiasDetected     bool            `json:"bias_detected" yaml:"bias_detected"`
	AdjustmentReason string          `json:"adjustment_reason,omitempty" yaml:"adjustment_reason,omitempty"`
}
