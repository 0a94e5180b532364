// internal/store/candidates.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

const candidateCacheKeyPrefix = "candidate:profile:"

// Candidates reads platform users from PostgreSQL. Referrer stats live in a
// side table and are joined in; users without a row there scan as plain
// candidates. Single lookups go through the same Redis read-through cache
// as Jobs.
type Candidates struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	log      logger.Logger
}

func NewCandidates(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Candidates {
	return &Candidates{db: db, cache: cache, cacheTTL: cacheTTL, log: log}
}

const candidateQuery = `
	SELECT u.id, u.email, u.role, u.skills, u.experience_text,
	       u.resume_url, u.education, u.portfolio_url, u.linkedin_url, u.active,
	       rp.tier_level, rp.network_size, rp.direct_referrals,
	       rp.total_referrals, rp.successful_hires
	FROM users u
	LEFT JOIN referrer_profiles rp ON rp.user_id = u.id`

func (s *Candidates) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	if candidate := s.fromCache(ctx, id); candidate != nil {
		return candidate, nil
	}

	row := s.db.QueryRowContext(ctx, candidateQuery+`
	WHERE u.id = $1`, id)

	candidate, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_candidate", err)
	}

	s.toCache(ctx, candidate)
	return candidate, nil
}

func (s *Candidates) ListActive(ctx context.Context, role string) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, candidateQuery+`
	WHERE u.active = true AND u.role = $1
	ORDER BY u.id`, role)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_candidates", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_active_candidates", err)
		}
		candidates = append(candidates, *candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_candidates", err)
	}
	return candidates, nil
}

func (s *Candidates) fromCache(ctx context.Context, id string) *models.Candidate {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, candidateCacheKeyPrefix+id).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("candidate cache read failed", map[string]interface{}{
				"candidateId": id,
				"error":       err.Error(),
			})
		}
		return nil
	}
	var candidate models.Candidate
	if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
		return nil
	}
	return &candidate
}

func (s *Candidates) toCache(ctx context.Context, candidate *models.Candidate) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(candidate)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, candidateCacheKeyPrefix+candidate.ID, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("candidate cache write failed", map[string]interface{}{
			"candidateId": candidate.ID,
			"error":       err.Error(),
		})
	}
}

func scanCandidate(row rowScanner) (*models.Candidate, error) {
	var (
		candidate models.Candidate
		resume    sql.NullString
		education sql.NullString
		portfolio sql.NullString
		linkedin  sql.NullString
		tier      sql.NullString
		network   sql.NullInt64
		direct    sql.NullInt64
		total     sql.NullInt64
		hires     sql.NullInt64
	)

	err := row.Scan(
		&candidate.ID, &candidate.Email, &candidate.Role,
		pq.Array(&candidate.Skills), &candidate.ExperienceText,
		&resume, &education, &portfolio, &linkedin, &candidate.Active,
		&tier, &network, &direct, &total, &hires,
	)
	if err != nil {
		return nil, err
	}

	candidate.ResumeURL = resume.String
	candidate.Education = education.String
	candidate.PortfolioURL = portfolio.String
	candidate.LinkedInURL = linkedin.String

	if tier.Valid {
		candidate.ReferrerProfile = &models.ReferrerProfile{
			TierLevel:       models.ReferrerTier(tier.String),
			NetworkSize:     int(network.Int64),
			DirectReferrals: int(direct.Int64),
			TotalReferrals:  int(total.Int64),
			SuccessfulHires: int(hires.Int64),
		}
	}
	return &candidate, nil
}
