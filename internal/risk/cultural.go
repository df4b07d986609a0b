package risk

import (
	"strings"

	"github.com/spigell/ta-nexus/internal/utils"
)

var (
	riskPhrases = []string{
		"i don't", "i won't", "impossible", "blame", "they failed",
		"management is bad", "not my job", "i quit", "just a job",
	}
	positivePhrases = []string{
		"team", "collaborate", "learn", "grow", "ownership", "initiative",
		"achieve", "improve", "impact", "contribute", "passionate",
	}
)

type Cultural struct {
	ToneScore       float64  `json:"tone_score" yaml:"tone_score"`
	Level           Level    `json:"risk_level" yaml:"risk_level"`
	RedFlags        []string `json:"red_flags" yaml:"red_flags"`
	PositiveSignals []string `json:"positive_signals" yaml:"positive_signals"`
}

// AssessCultural scans interview answers for fixed tone phrases.
func AssessCultural(answers []string) Cultural {
	text := strings.ToLower(strings.TrimSpace(strings.Join(answers, " ")))
	if text == "" {
		return Cultural{
			ToneScore:       50,
			Level:           LevelUnknown,
			RedFlags:        []string{},
			PositiveSignals: []string{},
		}
	}

	flags := matchPhrases(text, riskPhrases)
	positives := matchPhrases(text, positivePhrases)
	tone := ToneScore(len(positives), len(flags))

	level := LevelHigh
	switch {
	case tone >= 75:
		level = LevelLow
	case tone >= 50:
		level = LevelMedium
	}

	return Cultural{
		ToneScore:       utils.Round(tone, 1),
		Level:           level,
		RedFlags:        flags,
		PositiveSignals: positives,
	}
}

// ToneScore is 50 plus up to 40 for positive hits minus up to 40 for risk hits, clamped to [0, 100].
func ToneScore(positiveHits, riskHits int) float64 {
	score := 50 + min(5*float64(positiveHits), 40) - min(10*float64(riskHits), 40)
	return max(0, min(100, score))
}

func matchPhrases(text string, phrases []string) []string {
	hits := make([]string, 0)
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			hits = append(hits, phrase)
		}
	}
	return hits
}
