// internal/engine/network.go
package engine

import "trm-match-engine/internal/models"

// ReferrerNetworkScorer rates the breadth and activity of a candidate's
// referral network. Candidates who are not referrers score neutral.
type ReferrerNetworkScorer struct{}

func NewReferrerNetworkScorer() *ReferrerNetworkScorer {
	return &ReferrerNetworkScorer{}
}

func (s *ReferrerNetworkScorer) Score(c *models.Candidate) int {
	rp := c.ReferrerProfile
	if rp == nil {
		return neutralScore
	}

	score := tierScore(rp.TierLevel)

	switch {
	case rp.NetworkSize >= 100:
		score += 15
	case rp.NetworkSize >= 50:
		score += 10
	case rp.NetworkSize >= 20:
		score += 5
	}

	switch {
	case rp.DirectReferrals >= 20:
		score += 10
	case rp.DirectReferrals >= 10:
		score += 5
	case rp.DirectReferrals >= 5:
		score += 2
	}

	if score > 100 {
		score = 100
	}
	return score
}
