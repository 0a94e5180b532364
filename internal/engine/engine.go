// internal/engine/engine.go
package engine

import (
	"context"
	"time"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/common/metrics"
	"trm-match-engine/internal/models"
)

// AlgorithmVersion is stamped on every record so stored scores can be told
// apart after a scoring change.
const AlgorithmVersion = "1.3.0"

const (
	DefaultBatchSize             = 50
	DefaultPerfectMatchThreshold = 90
	DefaultSuggestionMinScore    = 60
)

// Options are the engine tunables. Zero values fall back to the defaults
// above at construction time.
type Options struct {
	BatchSize             int
	PerfectMatchThreshold int
	SuggestionMinScore    int
	StaleAfter            time.Duration
	WeightOverrides       map[models.Factor]float64
}

// Engine computes, stores and ranks match scores between jobs and
// candidates. All collaborators are injected; there is no shared global
// instance.
type Engine struct {
	jobs       JobStore
	candidates CandidateStore
	scores     MatchScoreStore
	sender     NotificationSender
	network    ReferralNetwork

	weights          models.Weights
	skillMatcher     SkillMatcher
	experienceScorer *ExperienceScorer
	locationScorer   LocationScorer
	salaryScorer     SalaryScorer
	qualityScorer    *CandidateQualityScorer
	networkScorer    *ReferrerNetworkScorer

	batchSize          int
	perfectThreshold   int
	suggestionMinScore int
	staleAfter         time.Duration

	logger logger.Logger
}

// New wires an Engine from its collaborators. Weight overrides are validated
// and renormalized up front; an invalid profile fails construction rather
// than producing silently skewed scores.
func New(
	jobs JobStore,
	candidates CandidateStore,
	scores MatchScoreStore,
	sender NotificationSender,
	network ReferralNetwork,
	opts Options,
	log logger.Logger,
) (*Engine, error) {
	weights, err := models.DefaultWeights().Merge(opts.WeightOverrides)
	if err != nil {
		return nil, errors.NewInvalidWeightsError(err)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PerfectMatchThreshold <= 0 {
		opts.PerfectMatchThreshold = DefaultPerfectMatchThreshold
	}
	if opts.SuggestionMinScore <= 0 {
		opts.SuggestionMinScore = DefaultSuggestionMinScore
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * 24 * time.Hour
	}

	return &Engine{
		jobs:               jobs,
		candidates:         candidates,
		scores:             scores,
		sender:             sender,
		network:            network,
		weights:            weights,
		skillMatcher:       NewSubstringSkillMatcher(),
		experienceScorer:   NewExperienceScorer(),
		locationScorer:     NewLocationTypeScorer(),
		salaryScorer:       NewNeutralSalaryScorer(),
		qualityScorer:      NewCandidateQualityScorer(),
		networkScorer:      NewReferrerNetworkScorer(),
		batchSize:          opts.BatchSize,
		perfectThreshold:   opts.PerfectMatchThreshold,
		suggestionMinScore: opts.SuggestionMinScore,
		staleAfter:         opts.StaleAfter,
		logger:             log.WithFields(map[string]interface{}{"component": "match-engine"}),
	}, nil
}

// SetSkillMatcher swaps the skill matching strategy.
func (e *Engine) SetSkillMatcher(m SkillMatcher) { e.skillMatcher = m }

// SetLocationScorer swaps the location strategy.
func (e *Engine) SetLocationScorer(s LocationScorer) { e.locationScorer = s }

// SetSalaryScorer swaps the salary strategy.
func (e *Engine) SetSalaryScorer(s SalaryScorer) { e.salaryScorer = s }

// Weights returns the normalized weight profile in use.
func (e *Engine) Weights() models.Weights { return e.weights }

// CalculateMatchScore loads both sides of the pair, scores them and upserts
// the record. Missing job or candidate surfaces as a NotFound error; the
// caller decides whether that is a 404 or a batch item failure.
func (e *Engine) CalculateMatchScore(ctx context.Context, jobID, candidateID string) (*models.MatchScore, error) {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil {
		return nil, errors.NewJobNotFoundError(jobID)
	}

	candidate, err := e.candidates.GetByID(ctx, candidateID)
	if err != nil || candidate == nil {
		return nil, errors.NewCandidateNotFoundError(candidateID)
	}

	score := e.score(job, candidate)

	if err := e.scores.Upsert(ctx, score); err != nil {
		metrics.ScoreCalculationsFailed.WithLabelValues("single", "SCORE_PERSIST_FAILED").Inc()
		return nil, errors.NewScorePersistFailedError(jobID, candidateID, err)
	}

	metrics.ScoresCalculated.WithLabelValues("single").Inc()
	if score.IsPerfectMatch {
		metrics.PerfectMatches.Inc()
	}

	e.logger.Debug("match score calculated", map[string]interface{}{
		"jobId":       jobID,
		"candidateId": candidateID,
		"score":       score.OverallScore,
		"perfect":     score.IsPerfectMatch,
	})

	return score, nil
}

// score runs the six factor scorers and the weighted aggregation over an
// already-loaded pair. Pure; no I/O.
func (e *Engine) score(job *models.Job, candidate *models.Candidate) *models.MatchScore {
	skillMatch := e.skillMatcher.Match(job.Skills, candidate.Skills)

	years := ParseExperienceYears(candidate.ExperienceText)
	qualityScore, qualitySnapshot := e.qualityScorer.Score(candidate)

	factors := models.FactorScores{
		Skills:           skillMatch.Score,
		Experience:       e.experienceScorer.Score(job.ExperienceLevel, years),
		Location:         e.locationScorer.Score(job, candidate),
		Salary:           e.salaryScorer.Score(job, candidate),
		CandidateQuality: qualityScore,
		ReferrerNetwork:  e.networkScorer.Score(candidate),
	}

	overall := e.weights.Apply(factors)

	return &models.MatchScore{
		JobID:                job.ID,
		CandidateID:          candidate.ID,
		CompanyID:            job.CompanyID,
		OverallScore:         overall,
		IsPerfectMatch:       overall >= e.perfectThreshold,
		Factors:              factors,
		Weights:              e.weights,
		MatchedSkills:        skillMatch.Matched,
		MissingSkills:        skillMatch.Missing,
		SkillMatchPercentage: skillMatch.Percentage,
		QualitySnapshot:      qualitySnapshot,
		JobSnapshot: models.JobSnapshot{
			Title:           job.Title,
			Skills:          job.Skills,
			ExperienceLevel: job.ExperienceLevel,
			LocationType:    job.LocationType,
			Salary:          job.Salary,
		},
		AlgorithmVersion: AlgorithmVersion,
		CalculatedAt:     time.Now().UTC(),
	}
}

// GetTopCandidatesForJob returns the ranked candidates for a job, optionally
// recomputing every pair first.
func (e *Engine) GetTopCandidatesForJob(ctx context.Context, jobID string, limit, minScore int, recalculate bool) ([]models.RankedCandidate, error) {
	if recalculate {
		if _, err := e.BatchCalculateForJob(ctx, jobID); err != nil {
			return nil, err
		}
	}

	records, err := e.scores.TopCandidatesForJob(ctx, jobID, limit, minScore)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("top_candidates_for_job", err)
	}

	ranked := make([]models.RankedCandidate, 0, len(records))
	for _, r := range records {
		ranked = append(ranked, models.RankedCandidate{CandidateID: r.CandidateID, Score: r})
	}
	return ranked, nil
}

// GetTopJobsForCandidate returns the ranked jobs for a candidate, optionally
// recomputing every pair first.
func (e *Engine) GetTopJobsForCandidate(ctx context.Context, candidateID string, limit, minScore int, recalculate bool) ([]models.RankedJob, error) {
	if recalculate {
		if _, err := e.BatchCalculateForCandidate(ctx, candidateID); err != nil {
			return nil, err
		}
	}

	records, err := e.scores.TopJobsForCandidate(ctx, candidateID, limit, minScore)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("top_jobs_for_candidate", err)
	}

	ranked := make([]models.RankedJob, 0, len(records))
	for _, r := range records {
		ranked = append(ranked, models.RankedJob{JobID: r.JobID, Score: r})
	}
	return ranked, nil
}

// CleanupExpired removes stale records; scheduled from the sweeper.
func (e *Engine) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := e.scores.CleanupExpired(ctx, e.staleAfter)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("cleanup_expired", err)
	}
	metrics.CleanupDeleted.Add(float64(deleted))
	if deleted > 0 {
		e.logger.Info("expired match scores removed", map[string]interface{}{"deleted": deleted})
	}
	return deleted, nil
}
