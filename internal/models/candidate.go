// internal/models/candidate.go
package models

// ReferrerTier is a referrer's quality rank.
type ReferrerTier string

const (
	TierBronze   ReferrerTier = "bronze"
	TierSilver   ReferrerTier = "silver"
	TierGold     ReferrerTier = "gold"
	TierPlatinum ReferrerTier = "platinum"
)

// ReferrerProfile carries the referral-network signals of a candidate that is
// also a referrer. Nil on plain job seekers.
type ReferrerProfile struct {
	TierLevel       ReferrerTier `json:"tierLevel"`
	NetworkSize     int          `json:"networkSize"`
	DirectReferrals int          `json:"directReferrals"`
	TotalReferrals  int          `json:"totalReferrals"`
	SuccessfulHires int          `json:"successfulHires"`
}

// Candidate is the engine's read-only view of a platform user in a
// job-seeking role.
type Candidate struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	Skills         []string `json:"skills"`
	ExperienceText string   `json:"experienceText"`
	ResumeURL      string   `json:"resumeUrl"`
	Education      string   `json:"education"`
	PortfolioURL   string   `json:"portfolioUrl"`
	LinkedInURL    string   `json:"linkedInUrl"`

	ReferrerProfile *ReferrerProfile `json:"referrerProfile,omitempty"`

	Active bool `json:"active"`
}

// CandidateRef is a lightweight pointer into the referral graph, as returned
// by a downline traversal.
type CandidateRef struct {
	CandidateID string `json:"candidateId"`
	Depth       int    `json:"depth"`
}
