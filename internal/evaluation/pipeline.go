// Package evaluation grades interview answers in two sequential oracle passes:
// a scoring pass followed by a bias validation pass.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/logger"
)

const (
	maxQuestionScore = 20
	// adjustmentTolerance is how far pass 2 may move the score before it counts as an adjustment.
	adjustmentTolerance = 5

	evaluatorInstruction = "You are a rigorous, unbiased technical interviewer grading candidate answers."
	validatorInstruction = "You are a fairness reviewer auditing interview grades for bias."

	degradedWeakness = "Evaluation error — manual review required"
	missingAnswer    = "[No answer provided]"
)

var (
	//go:embed prompts/evaluator.md
	evaluatorTemplate string
	//go:embed prompts/validator.md
	validatorTemplate string
)

type Options struct {
	Thresholds Thresholds
}

type Pipeline struct {
	oracle     ai.Oracle
	thresholds Thresholds
	logger     *zap.Logger
}

func New(oracle ai.Oracle, opts Options, log *zap.Logger) *Pipeline {
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	return &Pipeline{
		oracle:     oracle,
		thresholds: thresholds,
		logger:     logger.Component(log, "evaluation"),
	}
}

type questionRecord struct {
	Question         string  `json:"question"`
	CandidateAnswer  string  `json:"candidate_answer"`
	IdealAnswer      string  `json:"ideal_answer"`
	Score            float64 `json:"score"`
	Feedback         string  `json:"feedback"`
	WeaknessDetected bool    `json:"weakness_detected"`
}

type scoringResponse struct {
	Scores           []questionRecord `json:"scores"`
	Strengths        []string         `json:"strengths"`
	Weaknesses       []string         `json:"weaknesses"`
	CulturalFitScore float64          `json:"cultural_fit_score"`
	TechnicalScore   float64          `json:"technical_score"`
	BehavioralScore  float64          `json:"behavioral_score"`
	InterviewTraps   []string         `json:"interview_traps"`
}

type validationResponse struct {
	ValidatedScore   float64 `json:"validated_score"`
	BiasDetected     bool    `json:"bias_detected"`
	AdjustmentReason string  `json:"adjustment_reason"`
}

type firstPass struct {
	response   scoringResponse
	breakdown  []QuestionScore
	normalized int
}

// Evaluate runs both passes. It never returns an error: any failure in
// either pass produces the degraded result instead.
func (p *Pipeline) Evaluate(ctx context.Context, sessionID string, pairs []QAPair, jobDescription string) Result {
	log := p.logger.With(zap.String(logger.FieldSessionID, sessionID), zap.Int("questions", len(pairs)))

	stage := StageScoring
	log.Debug("evaluation stage", zap.Stringer("stage", stage))

	first, err := p.score(ctx, pairs, jobDescription)
	if err != nil {
		return p.degrade(log, sessionID, stage, err)
	}

	log.Debug("evaluation stage",
		zap.Stringer("from", stage),
		zap.Stringer("stage", StageValidating),
		zap.Int("first_pass_score", first.normalized),
	)
	stage = StageValidating

	validation, err := p.validate(ctx, first)
	if err != nil {
		return p.degrade(log, sessionID, stage, err)
	}

	total := int(math.Round(ai.Clamp(validation.ValidatedScore, 0, 100)))
	adjusted := math.Abs(float64(total-first.normalized)) > adjustmentTolerance

	res := Result{
		SessionID:        sessionID,
		TotalScore:       total,
		FirstPassScore:   first.normalized,
		Breakdown:        first.breakdown,
		Strengths:        ai.CleanList(first.response.Strengths),
		Weaknesses:       ai.CleanList(first.response.Weaknesses),
		CulturalFitScore: dimension(first.response.CulturalFitScore),
		TechnicalScore:   dimension(first.response.TechnicalScore),
		BehavioralScore:  dimension(first.response.BehavioralScore),
		InterviewTraps:   ai.CleanList(first.response.InterviewTraps),
		Recommendation:   p.thresholds.Recommend(float64(total)),
		Validated:        true,
		WasAdjusted:      adjusted,
		BiasDetected:     validation.BiasDetected,
		AdjustmentReason: strings.TrimSpace(validation.AdjustmentReason),
	}

	log.Debug("evaluation stage",
		zap.Stringer("from", stage),
		zap.Stringer("stage", StageDone),
		zap.Int("total_score", res.TotalScore),
		zap.Bool("was_adjusted", res.WasAdjusted),
		zap.String("recommendation", string(res.Recommendation)),
	)

	return res
}

func (p *Pipeline) score(ctx context.Context, pairs []QAPair, jobDescription string) (*firstPass, error) {
	if p.oracle == nil {
		return nil, errors.New("oracle is not configured")
	}

	prompt := ai.RenderPrompt(evaluatorTemplate, map[string]string{
		"JOB_DESCRIPTION": strings.TrimSpace(jobDescription),
		"QA_TEXT":         qaText(pairs),
	})

	raw, err := p.oracle.Generate(ctx, ai.Request{
		Prompt:            prompt,
		SystemInstruction: evaluatorInstruction,
		JSON:              true,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring pass: %w", err)
	}

	resp := scoringResponse{
		CulturalFitScore: 50,
		TechnicalScore:   50,
		BehavioralScore:  50,
	}
	if err := ai.DecodeJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("scoring pass: %w", err)
	}

	// answers were sent but none came back scored: the first pass is
	// inconsistent, so the result degrades instead of normalizing to 0
	if len(resp.Scores) == 0 && len(pairs) > 0 {
		return nil, failure.Malformed("scoring pass", errors.New("no question scores returned"))
	}

	breakdown := make([]QuestionScore, 0, len(resp.Scores))
	var sum float64
	for i, rec := range resp.Scores {
		qs := QuestionScore{
			Question:         strings.TrimSpace(rec.Question),
			CandidateAnswer:  strings.TrimSpace(rec.CandidateAnswer),
			IdealAnswer:      strings.TrimSpace(rec.IdealAnswer),
			Score:            ai.Clamp(rec.Score, 0, maxQuestionScore),
			Feedback:         strings.TrimSpace(rec.Feedback),
			WeaknessDetected: rec.WeaknessDetected,
		}
		if i < len(pairs) {
			if qs.Question == "" {
				qs.Question = pairs[i].Question
			}
			if qs.CandidateAnswer == "" {
				qs.CandidateAnswer = pairs[i].Answer
			}
		}
		sum += qs.Score
		breakdown = append(breakdown, qs)
	}

	return &firstPass{
		response:   resp,
		breakdown:  breakdown,
		normalized: Normalize(sum, len(breakdown)),
	}, nil
}

func (p *Pipeline) validate(ctx context.Context, first *firstPass) (validationResponse, error) {
	summary := append(ai.CleanList(first.response.Strengths), ai.CleanList(first.response.Weaknesses)...)

	prompt := ai.RenderPrompt(validatorTemplate, map[string]string{
		"FIRST_PASS_SCORE":   strconv.Itoa(first.normalized),
		"EVALUATION_SUMMARY": ai.MustJSON(summary),
	})

	raw, err := p.oracle.Generate(ctx, ai.Request{
		Prompt:            prompt,
		SystemInstruction: validatorInstruction,
		JSON:              true,
	})
	if err != nil {
		return validationResponse{}, fmt.Errorf("validation pass: %w", err)
	}

	resp := validationResponse{ValidatedScore: float64(first.normalized)}
	if err := ai.DecodeJSON(raw, &resp); err != nil {
		return validationResponse{}, fmt.Errorf("validation pass: %w", err)
	}

	return resp, nil
}

func (p *Pipeline) degrade(log *zap.Logger, sessionID string, from Stage, err error) Result {
	kind, _ := failure.KindOf(err)
	log.Warn("evaluation degraded",
		zap.Stringer("from", from),
		zap.Stringer("stage", StageDegraded),
		zap.Stringer("kind", kind),
		zap.Error(err),
	)

	return Degraded(sessionID)
}

// Degraded is the neutral result used when either pass fails.
func Degraded(sessionID string) Result {
	return Result{
		SessionID:        sessionID,
		TotalScore:       50,
		FirstPassScore:   50,
		Breakdown:        []QuestionScore{},
		Strengths:        []string{},
		Weaknesses:       []string{degradedWeakness},
		CulturalFitScore: 50,
		TechnicalScore:   50,
		BehavioralScore:  50,
		InterviewTraps:   []string{},
		Recommendation:   Screen,
		Validated:        false,
	}
}

// Normalize maps a sum of per-question scores onto 0-100. Zero questions normalize to 0.
func Normalize(sum float64, questions int) int {
	if questions <= 0 {
		return 0
	}
	return int(math.Round(sum / float64(questions*maxQuestionScore) * 100))
}

func dimension(v float64) int {
	return int(math.Round(ai.Clamp(v, 0, 100)))
}

func qaText(pairs []QAPair) string {
	var b strings.Builder
	for i, pair := range pairs {
		answer := strings.TrimSpace(pair.Answer)
		if answer == "" {
			answer = missingAnswer
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Q%d: %s\nCandidate Answer: %s", i+1, strings.TrimSpace(pair.Question), answer)
	}
	return b.String()
}
