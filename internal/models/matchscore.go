// internal/models/matchscore.go
package models

import "time"

// Notification kinds recorded in a MatchScore's ledger.
const (
	KindInstantMatchAlert        = "instant_match_alert"
	KindSuggestionToReferrerFmt  = "suggestion_to_referrer:%s"
	KindReferrerSuggestionDigest = "referrer_suggestion_digest"
)

// FactorScores holds the six [0,100] sub-scores feeding the overall score.
type FactorScores struct {
	Skills           int `json:"skills"`
	Experience       int `json:"experience"`
	Location         int `json:"location"`
	Salary           int `json:"salary"`
	CandidateQuality int `json:"candidateQuality"`
	ReferrerNetwork  int `json:"referrerNetwork"`
}

// QualitySnapshot freezes the candidate-quality inputs used at calculation
// time, so a score stays explainable after the profile changes.
type QualitySnapshot struct {
	ProfileCompleteness int          `json:"profileCompleteness"`
	PastSuccessRate     int          `json:"pastSuccessRate"`
	TotalReferrals      int          `json:"totalReferrals"`
	SuccessfulHires     int          `json:"successfulHires"`
	ReferrerTier        ReferrerTier `json:"referrerTier"`
	NetworkSize         int          `json:"networkSize"`
}

// JobSnapshot freezes the job facts used at calculation time.
type JobSnapshot struct {
	Title           string          `json:"title"`
	Skills          []string        `json:"skills"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	LocationType    LocationType    `json:"locationType"`
	Salary          SalaryRange     `json:"salary"`
}

// Notification is one entry in the append-only per-record ledger. Membership
// of a kind in the ledger is the at-most-once guard for that kind.
type Notification struct {
	Kind      string    `json:"kind"`
	SentAt    time.Time `json:"sentAt"`
	Recipient string    `json:"recipient,omitempty"`
}

// MatchScore is the engine-owned record for one (job, candidate) pair. There
// is at most one live record per pair; recalculation overwrites in place.
type MatchScore struct {
	JobID       string `json:"jobId"`
	CandidateID string `json:"candidateId"`
	CompanyID   string `json:"companyId"`

	OverallScore   int  `json:"overallScore"`
	IsPerfectMatch bool `json:"isPerfectMatch"`

	Factors FactorScores `json:"factorScores"`
	Weights Weights      `json:"weights"`

	MatchedSkills        []string `json:"matchedSkills"`
	MissingSkills        []string `json:"missingSkills"`
	SkillMatchPercentage float64  `json:"skillMatchPercentage"`

	QualitySnapshot QualitySnapshot `json:"candidateQualitySnapshot"`
	JobSnapshot     JobSnapshot     `json:"jobRequirementsSnapshot"`

	AlgorithmVersion string    `json:"algorithmVersion"`
	CalculatedAt     time.Time `json:"calculatedAt"`

	Notifications []Notification `json:"notifications"`
}

// HasNotification reports whether a kind is already in the ledger.
func (m *MatchScore) HasNotification(kind string) bool {
	for _, n := range m.Notifications {
		if n.Kind == kind {
			return true
		}
	}
	return false
}
