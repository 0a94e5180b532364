// internal/engine/quality.go
package engine

import (
	"math"

	"trm-match-engine/internal/models"
)

const neutralScore = 50

var tierScores = map[models.ReferrerTier]int{
	models.TierBronze:   50,
	models.TierSilver:   65,
	models.TierGold:     80,
	models.TierPlatinum: 95,
}

func tierScore(tier models.ReferrerTier) int {
	if s, ok := tierScores[tier]; ok {
		return s
	}
	return neutralScore
}

// CandidateQualityScorer blends profile completeness, past referral success
// and referrer tier into one quality factor.
type CandidateQualityScorer struct{}

func NewCandidateQualityScorer() *CandidateQualityScorer {
	return &CandidateQualityScorer{}
}

// ProfileCompleteness scores the weighted checklist of profile fields,
// capped at 100.
func (s *CandidateQualityScorer) ProfileCompleteness(c *models.Candidate) int {
	score := 0
	if c.ResumeURL != "" {
		score += 20
	}
	if len(c.Skills) > 0 {
		score += 25
	}
	if c.ExperienceText != "" {
		score += 20
	}
	if c.Education != "" {
		score += 15
	}
	if c.PortfolioURL != "" {
		score += 10
	}
	if c.LinkedInURL != "" {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// PastSuccessRate is successfulHires/totalReferrals as a percentage, neutral
// for candidates with no referral history.
func (s *CandidateQualityScorer) PastSuccessRate(c *models.Candidate) int {
	rp := c.ReferrerProfile
	if rp == nil || rp.TotalReferrals <= 0 {
		return neutralScore
	}
	return int(math.Round(float64(rp.SuccessfulHires) / float64(rp.TotalReferrals) * 100))
}

// Score computes the overall quality factor and the snapshot persisted with
// the match record.
func (s *CandidateQualityScorer) Score(c *models.Candidate) (int, models.QualitySnapshot) {
	completeness := s.ProfileCompleteness(c)
	successRate := s.PastSuccessRate(c)

	tier := models.ReferrerTier("")
	tierVal := neutralScore
	networkSize, totalReferrals, successfulHires := 0, 0, 0
	if rp := c.ReferrerProfile; rp != nil {
		tier = rp.TierLevel
		tierVal = tierScore(rp.TierLevel)
		networkSize = rp.NetworkSize
		totalReferrals = rp.TotalReferrals
		successfulHires = rp.SuccessfulHires
	}

	overall := int(math.Round(float64(completeness)*0.4 + float64(successRate)*0.4 + float64(tierVal)*0.2))

	return overall, models.QualitySnapshot{
		ProfileCompleteness: completeness,
		PastSuccessRate:     successRate,
		TotalReferrals:      totalReferrals,
		SuccessfulHires:     successfulHires,
		ReferrerTier:        tier,
		NetworkSize:         networkSize,
	}
}
