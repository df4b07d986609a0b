// Package risk builds the weighted risk matrix used to grade a candidate
// against a role. Everything here is pure and never fails.
package risk

import (
	"sort"
	"strings"

	"github.com/spigell/ta-nexus/internal/utils"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
	LevelUnknown  Level = "unknown"
)

type SkillGap struct {
	RequiredSkills  []string `json:"required_skills" yaml:"required_skills"`
	CandidateSkills []string `json:"candidate_skills" yaml:"candidate_skills"`
	Matched         []string `json:"matched_skills" yaml:"matched_skills"`
	Missing         []string `json:"missing_skills" yaml:"missing_skills"`
	MatchPct        float64  `json:"match_percentage" yaml:"match_percentage"`
	Severity        Level    `json:"gap_severity" yaml:"gap_severity"`
}

// CalculateSkillGap compares required and candidate skills case-insensitively.
// An empty requirement list is a full match.
func CalculateSkillGap(required, candidate []string) SkillGap {
	req := normalizeSet(required)
	have := normalizeSet(candidate)

	matched := make([]string, 0, len(req))
	missing := make([]string, 0)
	for skill := range req {
		if _, ok := have[skill]; ok {
			matched = append(matched, skill)
			continue
		}
		missing = append(missing, skill)
	}
	sort.Strings(matched)
	sort.Strings(missing)

	pct := 100.0
	if len(req) > 0 {
		pct = float64(len(matched)) / float64(len(req)) * 100
	}

	return SkillGap{
		RequiredSkills:  append([]string(nil), required...),
		CandidateSkills: append([]string(nil), candidate...),
		Matched:         matched,
		Missing:         missing,
		MatchPct:        utils.Round(pct, 1),
		Severity:        SkillSeverity(pct),
	}
}

// SkillSeverity bands a match percentage. Each boundary belongs to the better band.
func SkillSeverity(matchPct float64) Level {
	switch {
	case matchPct >= 85:
		return LevelLow
	case matchPct >= 65:
		return LevelMedium
	case matchPct >= 45:
		return LevelHigh
	default:
		return LevelCritical
	}
}

func normalizeSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}
