// internal/engine/batch.go
package engine

import (
	"context"
	"sync"
	"time"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/metrics"
	"trm-match-engine/internal/models"
)

// pairTask is one (job, candidate) calculation inside a batch.
type pairTask struct {
	jobID       string
	candidateID string
}

// BatchCalculateForJob recomputes the score of every active candidate
// against one job. Work proceeds in batches of at most batchSize pairs:
// concurrent within a batch, sequential across batches, so outstanding
// store I/O stays bounded. A failing pair is recorded and skipped, never
// fatal to the run.
func (e *Engine) BatchCalculateForJob(ctx context.Context, jobID string) (*models.BatchResult, error) {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil {
		return nil, errors.NewJobNotFoundError(jobID)
	}

	candidates, err := e.candidates.ListActive(ctx, "job_seeker")
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_candidates", err)
	}

	tasks := make([]pairTask, 0, len(candidates))
	for _, c := range candidates {
		tasks = append(tasks, pairTask{jobID: jobID, candidateID: c.ID})
	}

	start := time.Now()
	result, err := e.runBatches(ctx, tasks, func(t pairTask) string { return t.candidateID })
	metrics.BatchDuration.WithLabelValues("job").Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	e.logger.Info("batch recalculation for job finished", map[string]interface{}{
		"jobId":          jobID,
		"processed":      result.Processed,
		"perfectMatches": result.PerfectMatches,
		"errors":         len(result.Errors),
	})
	return result, nil
}

// BatchCalculateForCandidate is the symmetric bulk operation over all active
// jobs for one candidate.
func (e *Engine) BatchCalculateForCandidate(ctx context.Context, candidateID string) (*models.BatchResult, error) {
	candidate, err := e.candidates.GetByID(ctx, candidateID)
	if err != nil || candidate == nil {
		return nil, errors.NewCandidateNotFoundError(candidateID)
	}

	jobs, err := e.jobs.ListActive(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_jobs", err)
	}

	tasks := make([]pairTask, 0, len(jobs))
	for _, j := range jobs {
		tasks = append(tasks, pairTask{jobID: j.ID, candidateID: candidateID})
	}

	start := time.Now()
	result, err := e.runBatches(ctx, tasks, func(t pairTask) string { return t.jobID })
	metrics.BatchDuration.WithLabelValues("candidate").Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	e.logger.Info("batch recalculation for candidate finished", map[string]interface{}{
		"candidateId":    candidateID,
		"processed":      result.Processed,
		"perfectMatches": result.PerfectMatches,
		"errors":         len(result.Errors),
	})
	return result, nil
}

// RecalculateAll runs BatchCalculateForJob over every active job. A job
// whose batch fails outright contributes an error entry keyed by its id; the
// sweep continues with the remaining jobs.
func (e *Engine) RecalculateAll(ctx context.Context) (*models.BatchResult, error) {
	jobs, err := e.jobs.ListActive(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_jobs", err)
	}

	start := time.Now()
	total := &models.BatchResult{}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		result, err := e.BatchCalculateForJob(ctx, job.ID)
		if err != nil {
			total.Errors = append(total.Errors, models.ItemError{EntityID: job.ID, Message: err.Error()})
			continue
		}
		total.Merge(*result)
	}
	metrics.BatchDuration.WithLabelValues("all").Observe(time.Since(start).Seconds())

	e.logger.Info("full recalculation finished", map[string]interface{}{
		"jobs":           len(jobs),
		"processed":      total.Processed,
		"perfectMatches": total.PerfectMatches,
		"errors":         len(total.Errors),
	})
	return total, nil
}

// runBatches processes tasks in chunks of batchSize. Each chunk fans out to
// one goroutine per pair and fully drains before the next starts. The
// context is only checked between items and batches: an individual upsert is
// atomic, so cancellation never leaves a half-written score.
func (e *Engine) runBatches(ctx context.Context, tasks []pairTask, errKey func(pairTask) string) (*models.BatchResult, error) {
	result := &models.BatchResult{}
	var mu sync.Mutex

	for offset := 0; offset < len(tasks); offset += e.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := offset + e.batchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		batch := tasks[offset:end]

		var wg sync.WaitGroup
		for _, task := range batch {
			wg.Add(1)
			go func(t pairTask) {
				defer wg.Done()

				score, err := e.CalculateMatchScore(ctx, t.jobID, t.candidateID)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Errors = append(result.Errors, models.ItemError{
						EntityID: errKey(t),
						Message:  err.Error(),
					})
					return
				}
				result.Processed++
				if score.IsPerfectMatch {
					result.PerfectMatches++
				}
			}(task)
		}
		wg.Wait()
	}

	return result, nil
}
