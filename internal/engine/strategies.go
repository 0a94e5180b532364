// internal/engine/strategies.go
package engine

import "trm-match-engine/internal/models"

// LocationScorer and SalaryScorer are deliberately thin strategy interfaces.
// The defaults below are heuristic placeholders: the platform has no
// candidate location or salary-expectation input yet, so there is nothing
// real to match against. Swap these for real implementations once that data
// exists; the aggregator does not change.

type LocationScorer interface {
	Score(job *models.Job, candidate *models.Candidate) int
}

type SalaryScorer interface {
	Score(job *models.Job, candidate *models.Candidate) int
}

// LocationTypeScorer scores on work arrangement alone: remote always fits,
// hybrid mostly, onsite least.
type LocationTypeScorer struct{}

func NewLocationTypeScorer() *LocationTypeScorer {
	return &LocationTypeScorer{}
}

func (s *LocationTypeScorer) Score(job *models.Job, _ *models.Candidate) int {
	switch job.LocationType {
	case models.LocationRemote:
		return 100
	case models.LocationHybrid:
		return 80
	case models.LocationOnsite:
		return 60
	default:
		return 60
	}
}

// NeutralSalaryScorer returns a neutral constant when the job posts a range,
// and a full score when it posts none (nothing to mismatch).
type NeutralSalaryScorer struct{}

func NewNeutralSalaryScorer() *NeutralSalaryScorer {
	return &NeutralSalaryScorer{}
}

func (s *NeutralSalaryScorer) Score(job *models.Job, _ *models.Candidate) int {
	if !job.HasSalaryRange() {
		return 100
	}
	return 70
}
