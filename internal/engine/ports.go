// internal/engine/ports.go
package engine

import (
	"context"
	"time"

	"trm-match-engine/internal/models"
)

// JobStore is the read contract over the platform's job postings.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*models.Job, error)
	ListActive(ctx context.Context) ([]models.Job, error)
}

// CandidateStore is the read contract over the platform's users, scoped by
// role ("job_seeker", "recruiter", "admin").
type CandidateStore interface {
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	ListActive(ctx context.Context, role string) ([]models.Candidate, error)
}

// MatchScoreStore owns the engine's only mutable state: one record per
// (job, candidate) pair. Writers serialize per key, never across the store.
type MatchScoreStore interface {
	// Upsert overwrites the record for the pair, inserting on first write.
	// The notification ledger is preserved across recalculations.
	Upsert(ctx context.Context, score *models.MatchScore) error

	Get(ctx context.Context, jobID, candidateID string) (*models.MatchScore, error)

	// Ranked queries: overall_score descending, calculated_at descending on
	// ties, at most limit records at or above minScore.
	TopCandidatesForJob(ctx context.Context, jobID string, limit, minScore int) ([]models.MatchScore, error)
	TopJobsForCandidate(ctx context.Context, candidateID string, limit, minScore int) ([]models.MatchScore, error)

	// TopMatches ranks across all jobs, or one job when jobID is set.
	TopMatches(ctx context.Context, jobID *string, limit, minScore int) ([]models.MatchScore, error)

	// UnnotifiedPerfectMatches returns perfect matches whose ledger lacks
	// kind, optionally scoped to one job.
	UnnotifiedPerfectMatches(ctx context.Context, jobID *string, kind string) ([]models.MatchScore, error)

	// AppendNotification atomically appends to the ledger unless the kind is
	// already present. Returns false when the kind was already recorded.
	AppendNotification(ctx context.Context, jobID, candidateID string, n models.Notification) (bool, error)

	// CleanupExpired deletes records whose job or candidate is no longer
	// active, or whose calculation is older than staleAfter.
	CleanupExpired(ctx context.Context, staleAfter time.Duration) (int64, error)
}

// NotificationSender delivers one notification. Implementations live behind
// this interface so the dispatcher can be tested without a transport.
type NotificationSender interface {
	Send(ctx context.Context, userID, kind string, payload map[string]interface{}) error
}

// ReferralNetwork exposes the bounded-depth downline query the suggestion
// dispatcher consumes. Graph storage itself is external.
type ReferralNetwork interface {
	Downline(ctx context.Context, referrerID string, depth int) ([]models.CandidateRef, error)
}
