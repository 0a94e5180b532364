// internal/engine/experience_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trm-match-engine/internal/models"
)

func TestParseExperienceYears(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain years", "8 years of backend development", 8},
		{"plus suffix", "5+ years with Go", 5},
		{"yrs abbreviation", "3 yrs", 3},
		{"singular year", "1 year", 1},
		{"uppercase", "10 YEARS in fintech", 10},
		{"no digits", "seven years of experience", 0},
		{"empty text", "", 0},
		{"first figure wins", "2 years at Acme, 6 years total", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExperienceYears(tt.text))
		})
	}
}

func TestExperienceScorer_Score(t *testing.T) {
	scorer := NewExperienceScorer()

	tests := []struct {
		name  string
		level models.ExperienceLevel
		years int
		want  int
	}{
		{"no level required", "", 0, 100},
		{"unknown level", models.ExperienceLevel("wizard"), 0, 100},

		{"senior in range lower bound", models.LevelSenior, 5, 100},
		{"senior in range upper bound", models.LevelSenior, 10, 100},
		{"senior overqualified", models.LevelSenior, 12, 85},
		{"senior one year short", models.LevelSenior, 4, 75},
		{"senior two years short", models.LevelSenior, 3, 50},
		{"senior far short uses ratio", models.LevelSenior, 2, 20}, // 2/5*50 = 20
		{"senior zero years hits floor", models.LevelSenior, 0, 20},

		{"entry accepts zero years", models.LevelEntry, 0, 100},
		{"entry overqualified", models.LevelEntry, 5, 85},

		{"mid one short", models.LevelMid, 1, 75},
		{"mid in range", models.LevelMid, 3, 100},

		{"lead far short", models.LevelLead, 5, 31}, // 5/8*50 = 31.25 → 31
		{"executive far short floor", models.LevelExecutive, 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Score(tt.level, tt.years))
		})
	}
}
