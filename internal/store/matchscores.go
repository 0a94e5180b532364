// internal/store/matchscores.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

// MatchScores is the PostgreSQL-backed score store. One row per
// (job_id, candidate_id); the notifications column is an append-only JSONB
// array that survives recalculation.
type MatchScores struct {
	db  *sql.DB
	log logger.Logger
}

func NewMatchScores(db *sql.DB, log logger.Logger) *MatchScores {
	return &MatchScores{db: db, log: log}
}

const matchScoreColumns = `
	job_id, candidate_id, company_id,
	overall_score, is_perfect_match,
	skills_score, experience_score, location_score, salary_score,
	quality_score, network_score,
	weights, matched_skills, missing_skills, skill_match_percentage,
	quality_snapshot, job_snapshot,
	algorithm_version, calculated_at, notifications`

// Upsert writes the record for the pair, preserving the existing
// notification ledger on conflict.
func (s *MatchScores) Upsert(ctx context.Context, score *models.MatchScore) error {
	weights, err := json.Marshal(score.Weights)
	if err != nil {
		return err
	}
	qualitySnap, err := json.Marshal(score.QualitySnapshot)
	if err != nil {
		return err
	}
	jobSnap, err := json.Marshal(score.JobSnapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_scores (
			job_id, candidate_id, company_id,
			overall_score, is_perfect_match,
			skills_score, experience_score, location_score, salary_score,
			quality_score, network_score,
			weights, matched_skills, missing_skills, skill_match_percentage,
			quality_snapshot, job_snapshot,
			algorithm_version, calculated_at, notifications
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, '[]'::jsonb
		)
		ON CONFLICT (job_id, candidate_id) DO UPDATE SET
			company_id             = EXCLUDED.company_id,
			overall_score          = EXCLUDED.overall_score,
			is_perfect_match       = EXCLUDED.is_perfect_match,
			skills_score           = EXCLUDED.skills_score,
			experience_score       = EXCLUDED.experience_score,
			location_score         = EXCLUDED.location_score,
			salary_score           = EXCLUDED.salary_score,
			quality_score          = EXCLUDED.quality_score,
			network_score          = EXCLUDED.network_score,
			weights                = EXCLUDED.weights,
			matched_skills         = EXCLUDED.matched_skills,
			missing_skills         = EXCLUDED.missing_skills,
			skill_match_percentage = EXCLUDED.skill_match_percentage,
			quality_snapshot       = EXCLUDED.quality_snapshot,
			job_snapshot           = EXCLUDED.job_snapshot,
			algorithm_version      = EXCLUDED.algorithm_version,
			calculated_at          = EXCLUDED.calculated_at`,
		score.JobID, score.CandidateID, score.CompanyID,
		score.OverallScore, score.IsPerfectMatch,
		score.Factors.Skills, score.Factors.Experience, score.Factors.Location,
		score.Factors.Salary, score.Factors.CandidateQuality, score.Factors.ReferrerNetwork,
		weights, pq.Array(score.MatchedSkills), pq.Array(score.MissingSkills),
		score.SkillMatchPercentage, qualitySnap, jobSnap,
		score.AlgorithmVersion, score.CalculatedAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("upsert_match_score", err)
	}
	return nil
}

func (s *MatchScores) Get(ctx context.Context, jobID, candidateID string) (*models.MatchScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+matchScoreColumns+`
		FROM match_scores
		WHERE job_id = $1 AND candidate_id = $2`, jobID, candidateID)

	score, err := scanMatchScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_match_score", err)
	}
	return score, nil
}

func (s *MatchScores) TopCandidatesForJob(ctx context.Context, jobID string, limit, minScore int) ([]models.MatchScore, error) {
	return s.queryScores(ctx, "top_candidates_for_job", `
		SELECT `+matchScoreColumns+`
		FROM match_scores
		WHERE job_id = $1 AND overall_score >= $2
		ORDER BY overall_score DESC, calculated_at DESC
		LIMIT $3`, jobID, minScore, limit)
}

func (s *MatchScores) TopJobsForCandidate(ctx context.Context, candidateID string, limit, minScore int) ([]models.MatchScore, error) {
	return s.queryScores(ctx, "top_jobs_for_candidate", `
		SELECT `+matchScoreColumns+`
		FROM match_scores
		WHERE candidate_id = $1 AND overall_score >= $2
		ORDER BY overall_score DESC, calculated_at DESC
		LIMIT $3`, candidateID, minScore, limit)
}

func (s *MatchScores) TopMatches(ctx context.Context, jobID *string, limit, minScore int) ([]models.MatchScore, error) {
	if jobID != nil {
		return s.TopCandidatesForJob(ctx, *jobID, limit, minScore)
	}
	return s.queryScores(ctx, "top_matches", `
		SELECT `+matchScoreColumns+`
		FROM match_scores
		WHERE overall_score >= $1
		ORDER BY overall_score DESC, calculated_at DESC
		LIMIT $2`, minScore, limit)
}

// UnnotifiedPerfectMatches returns perfect matches whose ledger has no entry
// of the given kind, using JSONB containment on the notifications column.
func (s *MatchScores) UnnotifiedPerfectMatches(ctx context.Context, jobID *string, kind string) ([]models.MatchScore, error) {
	probe, err := kindProbe(kind)
	if err != nil {
		return nil, err
	}

	if jobID != nil {
		return s.queryScores(ctx, "unnotified_perfect_matches", `
			SELECT `+matchScoreColumns+`
			FROM match_scores
			WHERE is_perfect_match AND job_id = $1 AND NOT notifications @> $2::jsonb
			ORDER BY overall_score DESC, calculated_at DESC`, *jobID, probe)
	}
	return s.queryScores(ctx, "unnotified_perfect_matches", `
		SELECT `+matchScoreColumns+`
		FROM match_scores
		WHERE is_perfect_match AND NOT notifications @> $1::jsonb
		ORDER BY overall_score DESC, calculated_at DESC`, probe)
}

// AppendNotification appends one ledger entry unless the kind is already
// present. The membership check and the append run in a single UPDATE so two
// concurrent sweeps cannot both record the same kind. Returns false when the
// kind was already present or the pair has no record.
func (s *MatchScores) AppendNotification(ctx context.Context, jobID, candidateID string, n models.Notification) (bool, error) {
	entry, err := json.Marshal(n)
	if err != nil {
		return false, err
	}
	probe, err := kindProbe(n.Kind)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE match_scores
		SET notifications = notifications || $3::jsonb
		WHERE job_id = $1 AND candidate_id = $2 AND NOT notifications @> $4::jsonb`,
		jobID, candidateID, entry, probe)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("append_notification", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("append_notification", err)
	}
	return affected > 0, nil
}

// CleanupExpired deletes records older than staleAfter along with records
// whose job or candidate is gone or inactive.
func (s *MatchScores) CleanupExpired(ctx context.Context, staleAfter time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM match_scores ms
		WHERE ms.calculated_at < $1
		   OR NOT EXISTS (SELECT 1 FROM jobs j WHERE j.id = ms.job_id AND j.active)
		   OR NOT EXISTS (SELECT 1 FROM users u WHERE u.id = ms.candidate_id AND u.active)`,
		cutoff)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("cleanup_expired", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("cleanup_expired", err)
	}

	s.log.Info("expired match scores removed", map[string]interface{}{
		"deleted": deleted,
		"cutoff":  cutoff,
	})
	return deleted, nil
}

func (s *MatchScores) queryScores(ctx context.Context, name, query string, args ...interface{}) ([]models.MatchScore, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(name, err)
	}
	defer rows.Close()

	var scores []models.MatchScore
	for rows.Next() {
		score, err := scanMatchScore(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError(name, err)
		}
		scores = append(scores, *score)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(name, err)
	}
	return scores, nil
}

// kindProbe builds the JSONB containment operand for a ledger kind.
func kindProbe(kind string) ([]byte, error) {
	return json.Marshal([]map[string]string{{"kind": kind}})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatchScore(row rowScanner) (*models.MatchScore, error) {
	var (
		score         models.MatchScore
		weights       []byte
		qualitySnap   []byte
		jobSnap       []byte
		notifications []byte
	)

	err := row.Scan(
		&score.JobID, &score.CandidateID, &score.CompanyID,
		&score.OverallScore, &score.IsPerfectMatch,
		&score.Factors.Skills, &score.Factors.Experience, &score.Factors.Location,
		&score.Factors.Salary, &score.Factors.CandidateQuality, &score.Factors.ReferrerNetwork,
		&weights, pq.Array(&score.MatchedSkills), pq.Array(&score.MissingSkills),
		&score.SkillMatchPercentage, &qualitySnap, &jobSnap,
		&score.AlgorithmVersion, &score.CalculatedAt, &notifications,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(weights, &score.Weights); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(qualitySnap, &score.QualitySnapshot); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jobSnap, &score.JobSnapshot); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(notifications, &score.Notifications); err != nil {
		return nil, err
	}
	return &score, nil
}
