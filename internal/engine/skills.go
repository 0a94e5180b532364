// internal/engine/skills.go
package engine

import (
	"math"
	"strings"
)

const (
	extraSkillBonus    = 2
	extraSkillBonusCap = 10
)

// SkillMatch is the outcome of matching a candidate's skills against a job's
// requirements.
type SkillMatch struct {
	Matched    []string
	Missing    []string
	Extra      []string
	Percentage float64
	Score      int
}

// SkillMatcher classifies candidate skills against job requirements. The
// default is substring-based; a semantic matcher can replace it without
// touching the aggregator.
type SkillMatcher interface {
	Match(required, offered []string) SkillMatch
}

// SubstringSkillMatcher matches case-insensitively, accepting exact equality
// or containment in either direction ("react" matches "react native").
type SubstringSkillMatcher struct{}

func NewSubstringSkillMatcher() *SubstringSkillMatcher {
	return &SubstringSkillMatcher{}
}

func (m *SubstringSkillMatcher) Match(required, offered []string) SkillMatch {
	req := normalizeSkills(required)
	off := normalizeSkills(offered)

	// Nothing required: nothing can be missing.
	if len(req) == 0 {
		return SkillMatch{Percentage: 100, Score: 100}
	}

	if len(off) == 0 {
		return SkillMatch{Missing: req, Percentage: 0, Score: 0}
	}

	var matched, missing []string
	coveredOffered := make(map[string]bool, len(off))
	for _, want := range req {
		found := false
		for _, have := range off {
			if skillsOverlap(want, have) {
				found = true
				coveredOffered[have] = true
			}
		}
		if found {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}

	var extra []string
	for _, have := range off {
		if !coveredOffered[have] {
			extra = append(extra, have)
		}
	}

	percentage := float64(len(matched)) / float64(len(req)) * 100

	bonus := len(extra) * extraSkillBonus
	if bonus > extraSkillBonusCap {
		bonus = extraSkillBonusCap
	}

	score := int(math.Round(percentage)) + bonus
	if score > 100 {
		score = 100
	}

	return SkillMatch{
		Matched:    matched,
		Missing:    missing,
		Extra:      extra,
		Percentage: percentage,
		Score:      score,
	}
}

func skillsOverlap(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// normalizeSkills lower-cases, trims, drops empties and dedupes, keeping
// first-seen order.
func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
