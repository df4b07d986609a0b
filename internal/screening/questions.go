package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/store"
)

const (
	questionsInstruction = "You are an intelligence analyst writing candidate specific screening questions."

	maxProfileRunes     = 3000
	maxDescriptionRunes = 2000
	defaultQuestionType = "general"
)

//go:embed prompts/questions.md
var questionsTemplate string

type questionRecord struct {
	Type          string   `json:"type"`
	Question      string   `json:"question" validate:"required"`
	IdealKeywords []string `json:"ideal_keywords"`
	TrapFor       string   `json:"trap_for"`
	Difficulty    string   `json:"difficulty"`
}

type questionsResponse struct {
	Questions []questionRecord `json:"questions" validate:"required,min=1,dive"`
}

// GenerateQuestions asks the oracle for questions tailored to the candidate
// and the given skill gaps. Questions are numbered from 1 in order.
func (s *Service) GenerateQuestions(ctx context.Context, profile *candidate.Profile, jobDescription string, gaps []string) ([]store.Question, error) {
	if s.oracle == nil {
		return nil, failure.Upstream("generate questions", errors.New("oracle is not configured"))
	}

	var subject any = map[string]string{}
	if profile != nil {
		subject = profile
	}

	gapContext := "Probe for general competency."
	if cleaned := ai.CleanList(gaps); len(cleaned) > 0 {
		gapContext = "Key skill gaps to probe: " + strings.Join(cleaned, ", ")
	}

	raw, err := s.oracle.Generate(ctx, ai.Request{
		Prompt: ai.RenderPrompt(questionsTemplate, map[string]string{
			"CANDIDATE":       clip(ai.MustJSON(subject), maxProfileRunes),
			"JOB_DESCRIPTION": clip(strings.TrimSpace(jobDescription), maxDescriptionRunes),
			"GAP_CONTEXT":     gapContext,
		}),
		SystemInstruction: questionsInstruction,
		JSON:              true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var resp questionsResponse
	if err := ai.DecodeJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := make([]store.Question, 0, len(resp.Questions))
	for i, rec := range resp.Questions {
		qType := strings.ToLower(strings.TrimSpace(rec.Type))
		if qType == "" {
			qType = defaultQuestionType
		}
		questions = append(questions, store.Question{
			ID:          i + 1,
			Text:        strings.TrimSpace(rec.Question),
			Type:        qType,
			IdealAnswer: strings.Join(ai.CleanList(rec.IdealKeywords), ", "),
		})
	}

	return questions, nil
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
