// internal/engine/experience.go
package engine

import (
	"regexp"
	"strconv"
	"strings"

	"trm-match-engine/internal/models"
)

// yearsPattern extracts "8 years", "5+ yrs" etc. from free-text experience.
var yearsPattern = regexp.MustCompile(`(\d+)\+?\s*(?:years?|yrs?)`)

// ParseExperienceYears pulls the first years figure out of free text,
// defaulting to 0 when nothing matches.
func ParseExperienceYears(text string) int {
	m := yearsPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}
	years, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return years
}

// levelRange is the expected years band for a seniority level.
type levelRange struct {
	min int
	max int
}

var levelRanges = map[models.ExperienceLevel]levelRange{
	models.LevelEntry:     {0, 2},
	models.LevelMid:       {2, 5},
	models.LevelSenior:    {5, 10},
	models.LevelLead:      {8, 15},
	models.LevelExecutive: {10, 50},
}

// ExperienceScorer bands candidate years against the job's level range.
type ExperienceScorer struct{}

func NewExperienceScorer() *ExperienceScorer {
	return &ExperienceScorer{}
}

// Score applies the ordered policy: in range 100, overqualified 85, one year
// short 75, two years short 50, further short a floor-bounded ratio.
func (s *ExperienceScorer) Score(level models.ExperienceLevel, years int) int {
	if level == "" {
		return 100
	}
	r, ok := levelRanges[level]
	if !ok {
		return 100
	}

	switch {
	case years >= r.min && years <= r.max:
		return 100
	case years > r.max:
		return 85
	case r.min-years <= 1:
		return 75
	case r.min-years <= 2:
		return 50
	default:
		ratio := float64(years) / float64(r.min) * 50
		if ratio < 20 {
			return 20
		}
		return int(ratio)
	}
}
