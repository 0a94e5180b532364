// internal/models/weights.go
package models

import (
	"fmt"
	"math"
)

// Factor names the six scoring factors. Used for weight overrides coming in
// from config or API payloads.
type Factor string

const (
	FactorSkills           Factor = "skills"
	FactorExperience       Factor = "experience"
	FactorLocation         Factor = "location"
	FactorSalary           Factor = "salary"
	FactorCandidateQuality Factor = "candidateQuality"
	FactorReferrerNetwork  Factor = "referrerNetwork"
)

// Weights is the fixed-field weight profile applied to the factor scores.
// A valid Weights always sums to 1.
type Weights struct {
	Skills           float64 `json:"skills"`
	Experience       float64 `json:"experience"`
	Location         float64 `json:"location"`
	Salary           float64 `json:"salary"`
	CandidateQuality float64 `json:"candidateQuality"`
	ReferrerNetwork  float64 `json:"referrerNetwork"`
}

// DefaultWeights returns the stock profile.
func DefaultWeights() Weights {
	return Weights{
		Skills:           0.30,
		Experience:       0.25,
		Location:         0.15,
		Salary:           0.15,
		CandidateQuality: 0.10,
		ReferrerNetwork:  0.05,
	}
}

// Merge applies partial overrides on top of w and renormalizes so the result
// sums to exactly 1. Negative weights and unknown factor names are rejected;
// nothing is silently clamped.
func (w Weights) Merge(overrides map[Factor]float64) (Weights, error) {
	out := w
	for factor, value := range overrides {
		if value < 0 {
			return Weights{}, fmt.Errorf("weight for %q must not be negative, got %v", factor, value)
		}
		switch factor {
		case FactorSkills:
			out.Skills = value
		case FactorExperience:
			out.Experience = value
		case FactorLocation:
			out.Location = value
		case FactorSalary:
			out.Salary = value
		case FactorCandidateQuality:
			out.CandidateQuality = value
		case FactorReferrerNetwork:
			out.ReferrerNetwork = value
		default:
			return Weights{}, fmt.Errorf("unknown scoring factor %q", factor)
		}
	}
	return out.Normalize()
}

// Normalize divides every weight by the current total.
func (w Weights) Normalize() (Weights, error) {
	total := w.Skills + w.Experience + w.Location + w.Salary + w.CandidateQuality + w.ReferrerNetwork
	if total <= 0 {
		return Weights{}, fmt.Errorf("weights must have a positive total, got %v", total)
	}
	return Weights{
		Skills:           w.Skills / total,
		Experience:       w.Experience / total,
		Location:         w.Location / total,
		Salary:           w.Salary / total,
		CandidateQuality: w.CandidateQuality / total,
		ReferrerNetwork:  w.ReferrerNetwork / total,
	}, nil
}

// Apply computes the weighted overall score, rounded and clamped to [0,100].
func (w Weights) Apply(f FactorScores) int {
	sum := float64(f.Skills)*w.Skills +
		float64(f.Experience)*w.Experience +
		float64(f.Location)*w.Location +
		float64(f.Salary)*w.Salary +
		float64(f.CandidateQuality)*w.CandidateQuality +
		float64(f.ReferrerNetwork)*w.ReferrerNetwork

	overall := int(math.Round(sum))
	if overall > 100 {
		overall = 100
	}
	if overall < 0 {
		overall = 0
	}
	return overall
}
