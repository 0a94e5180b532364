// internal/webhook/events.go
package webhook

import (
	"context"
	"fmt"

	"trm-match-engine/internal/models"
)

// Platform events the engine reacts to.
const (
	EventJobUpdated       = "job.updated"
	EventCandidateUpdated = "candidate.updated"
	EventRecalculateAll   = "match.recalculate"
)

// Recalculator is the slice of the engine the webhook surface drives.
type Recalculator interface {
	BatchCalculateForJob(ctx context.Context, jobID string) (*models.BatchResult, error)
	BatchCalculateForCandidate(ctx context.Context, candidateID string) (*models.BatchResult, error)
	RecalculateAll(ctx context.Context) (*models.BatchResult, error)
}

const jobEventSchema = `{
	"type": "object",
	"required": ["jobId"],
	"properties": {
		"jobId": {"type": "string", "minLength": 1},
		"companyId": {"type": "string"}
	}
}`

const candidateEventSchema = `{
	"type": "object",
	"required": ["candidateId"],
	"properties": {
		"candidateId": {"type": "string", "minLength": 1}
	}
}`

// RegisterEngineEvents wires the standard platform events to engine
// recalculations.
func RegisterEngineEvents(h *Handler, eng Recalculator) error {
	err := h.On(EventJobUpdated, jobEventSchema, func(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
		jobID, _ := payload["jobId"].(string)
		result, err := eng.BatchCalculateForJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return batchSummary(result), nil
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", EventJobUpdated, err)
	}

	err = h.On(EventCandidateUpdated, candidateEventSchema, func(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
		candidateID, _ := payload["candidateId"].(string)
		result, err := eng.BatchCalculateForCandidate(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		return batchSummary(result), nil
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", EventCandidateUpdated, err)
	}

	err = h.On(EventRecalculateAll, "", func(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
		result, err := eng.RecalculateAll(ctx)
		if err != nil {
			return nil, err
		}
		return batchSummary(result), nil
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", EventRecalculateAll, err)
	}
	return nil
}

func batchSummary(result *models.BatchResult) map[string]interface{} {
	return map[string]interface{}{
		"processed":      result.Processed,
		"perfectMatches": result.PerfectMatches,
		"errors":         len(result.Errors),
	}
}
