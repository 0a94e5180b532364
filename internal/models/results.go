// internal/models/results.go
package models

// ItemError records one failed entity inside a bulk operation. Bulk
// operations never abort on a single item; they collect these instead.
type ItemError struct {
	EntityID string `json:"entityId"`
	Message  string `json:"message"`
}

// BatchResult is the structured report of a bulk recalculation.
type BatchResult struct {
	Processed      int         `json:"processed"`
	PerfectMatches int         `json:"perfectMatches"`
	Errors         []ItemError `json:"errors,omitempty"`
}

// Merge folds another report into this one.
func (r *BatchResult) Merge(other BatchResult) {
	r.Processed += other.Processed
	r.PerfectMatches += other.PerfectMatches
	r.Errors = append(r.Errors, other.Errors...)
}

// NotifyResult reports a perfect-match notification sweep.
type NotifyResult struct {
	MatchesFound int         `json:"matchesFound"`
	AlertsSent   int         `json:"alertsSent"`
	Errors       []ItemError `json:"errors,omitempty"`
}

// SuggestResult reports a referrer suggestion digest.
type SuggestResult struct {
	ReferrerID  string      `json:"referrerId"`
	Suggestions int         `json:"suggestions"`
	DigestSent  bool        `json:"digestSent"`
	Errors      []ItemError `json:"errors,omitempty"`
}

// RankedCandidate pairs a candidate id with its score for a job, in ranked
// query responses.
type RankedCandidate struct {
	CandidateID string     `json:"candidateId"`
	Score       MatchScore `json:"score"`
}

// RankedJob pairs a job id with its score for a candidate.
type RankedJob struct {
	JobID string     `json:"jobId"`
	Score MatchScore `json:"score"`
}
