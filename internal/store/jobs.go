// internal/store/jobs.go
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

const jobCacheKeyPrefix = "job:profile:"

// Jobs reads job postings from PostgreSQL with a Redis read-through cache
// on single-job lookups. Cache misses and cache failures both fall through
// to the database.
type Jobs struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	log      logger.Logger
}

func NewJobs(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Jobs {
	return &Jobs{db: db, cache: cache, cacheTTL: cacheTTL, log: log}
}

func (s *Jobs) GetByID(ctx context.Context, id string) (*models.Job, error) {
	if job := s.fromCache(ctx, id); job != nil {
		return job, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, title, skills, experience_level,
		       location_type, salary_min, salary_max, active
		FROM jobs
		WHERE id = $1`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_job", err)
	}

	s.toCache(ctx, job)
	return job, nil
}

func (s *Jobs) ListActive(ctx context.Context) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, title, skills, experience_level,
		       location_type, salary_min, salary_max, active
		FROM jobs
		WHERE active = true
		ORDER BY id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_jobs", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_active_jobs", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_jobs", err)
	}
	return jobs, nil
}

func (s *Jobs) fromCache(ctx context.Context, id string) *models.Job {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, jobCacheKeyPrefix+id).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("job cache read failed", map[string]interface{}{
				"jobId": id,
				"error": err.Error(),
			})
		}
		return nil
	}
	var job models.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil
	}
	return &job
}

func (s *Jobs) toCache(ctx context.Context, job *models.Job) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, jobCacheKeyPrefix+job.ID, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("job cache write failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job       models.Job
		salaryMin sql.NullInt64
		salaryMax sql.NullInt64
	)
	err := row.Scan(
		&job.ID, &job.CompanyID, &job.Title, pq.Array(&job.Skills),
		&job.ExperienceLevel, &job.LocationType,
		&salaryMin, &salaryMax, &job.Active,
	)
	if err != nil {
		return nil, err
	}
	job.Salary = models.SalaryRange{Min: int(salaryMin.Int64), Max: int(salaryMax.Int64)}
	return &job, nil
}
