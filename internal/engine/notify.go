// internal/engine/notify.go
package engine

import (
	"context"
	"fmt"
	"time"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/metrics"
	"trm-match-engine/internal/models"
)

// suggestionLimit caps how many matches go into one referrer digest.
const suggestionLimit = 10

// FindAndNotifyPerfectMatches sweeps the store for perfect matches that have
// not yet carried an instant alert, optionally scoped to one job. The ledger
// append happens before the send and is the idempotency guard: a concurrent
// or retried sweep that loses the append skips the match. A send failure
// after the append is recorded but not retried, so delivery is at-most-once
// per match.
func (e *Engine) FindAndNotifyPerfectMatches(ctx context.Context, jobID *string) (*models.NotifyResult, error) {
	matches, err := e.scores.UnnotifiedPerfectMatches(ctx, jobID, models.KindInstantMatchAlert)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("unnotified_perfect_matches", err)
	}

	result := &models.NotifyResult{MatchesFound: len(matches)}
	if len(matches) == 0 {
		return result, nil
	}

	staff, err := e.listStaff(ctx)
	if err != nil {
		return nil, err
	}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := e.notifyPerfectMatch(ctx, &match, staff); err != nil {
			result.Errors = append(result.Errors, models.ItemError{
				EntityID: match.JobID + ":" + match.CandidateID,
				Message:  err.Error(),
			})
			continue
		}
		result.AlertsSent++
	}

	e.logger.Info("perfect match sweep finished", map[string]interface{}{
		"matchesFound": result.MatchesFound,
		"alertsSent":   result.AlertsSent,
		"errors":       len(result.Errors),
	})
	return result, nil
}

func (e *Engine) notifyPerfectMatch(ctx context.Context, match *models.MatchScore, staff []models.Candidate) error {
	appended, err := e.scores.AppendNotification(ctx, match.JobID, match.CandidateID, models.Notification{
		Kind:      models.KindInstantMatchAlert,
		SentAt:    time.Now().UTC(),
		Recipient: match.CandidateID,
	})
	if err != nil {
		return errors.NewQueryExecutionFailedError("append_notification", err)
	}
	if !appended {
		// Another sweep already claimed this match.
		return nil
	}

	payload := map[string]interface{}{
		"jobId":       match.JobID,
		"candidateId": match.CandidateID,
		"companyId":   match.CompanyID,
		"score":       match.OverallScore,
	}

	if err := e.sender.Send(ctx, match.CandidateID, models.KindInstantMatchAlert, payload); err != nil {
		metrics.NotificationsFailed.WithLabelValues(models.KindInstantMatchAlert).Inc()
		return errors.NewNotificationSendFailedError(match.CandidateID, err)
	}
	metrics.NotificationsSent.WithLabelValues(models.KindInstantMatchAlert).Inc()

	for _, member := range staff {
		if err := e.sender.Send(ctx, member.ID, models.KindInstantMatchAlert, payload); err != nil {
			// The candidate alert went out; a staff miss should not mark the
			// whole match failed.
			metrics.NotificationsFailed.WithLabelValues(models.KindInstantMatchAlert).Inc()
			e.logger.Warn("staff alert delivery failed", map[string]interface{}{
				"recipient": member.ID,
				"jobId":     match.JobID,
				"error":     err.Error(),
			})
			continue
		}
		metrics.NotificationsSent.WithLabelValues(models.KindInstantMatchAlert).Inc()
	}

	return nil
}

func (e *Engine) listStaff(ctx context.Context) ([]models.Candidate, error) {
	recruiters, err := e.candidates.ListActive(ctx, "recruiter")
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_recruiters", err)
	}
	admins, err := e.candidates.ListActive(ctx, "admin")
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_admins", err)
	}
	return append(recruiters, admins...), nil
}

// SendSuggestionsToReferrer computes the top suggestions inside the
// referrer's depth-2 downline and bundles them into one digest. After a
// successful send each underlying record is marked with a per-referrer
// ledger kind so the same suggestion is never re-sent.
func (e *Engine) SendSuggestionsToReferrer(ctx context.Context, referrerID string, jobID *string) (*models.SuggestResult, error) {
	result := &models.SuggestResult{ReferrerID: referrerID}

	downline, err := e.network.Downline(ctx, referrerID, 2)
	if err != nil {
		return nil, errors.NewReferralLookupFailedError(referrerID, err)
	}
	if len(downline) == 0 {
		return result, nil
	}

	depthByCandidate := make(map[string]int, len(downline))
	for _, ref := range downline {
		depthByCandidate[ref.CandidateID] = ref.Depth
	}

	matches, err := e.scores.TopMatches(ctx, jobID, suggestionLimit*len(downline), e.suggestionMinScore)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("top_matches", err)
	}

	ledgerKind := fmt.Sprintf(models.KindSuggestionToReferrerFmt, referrerID)

	var suggestions []models.MatchScore
	var entries []map[string]interface{}
	for _, match := range matches {
		depth, inDownline := depthByCandidate[match.CandidateID]
		if !inDownline || match.HasNotification(ledgerKind) {
			continue
		}
		suggestions = append(suggestions, match)
		entries = append(entries, map[string]interface{}{
			"jobId":       match.JobID,
			"candidateId": match.CandidateID,
			"score":       match.OverallScore,
			"depth":       depth,
		})
		if len(suggestions) == suggestionLimit {
			break
		}
	}

	result.Suggestions = len(suggestions)
	if len(suggestions) == 0 {
		return result, nil
	}

	payload := map[string]interface{}{
		"referrerId":  referrerID,
		"suggestions": entries,
	}
	if err := e.sender.Send(ctx, referrerID, models.KindReferrerSuggestionDigest, payload); err != nil {
		metrics.NotificationsFailed.WithLabelValues(models.KindReferrerSuggestionDigest).Inc()
		return result, errors.NewNotificationSendFailedError(referrerID, err)
	}
	metrics.NotificationsSent.WithLabelValues(models.KindReferrerSuggestionDigest).Inc()
	result.DigestSent = true

	for _, match := range suggestions {
		if _, err := e.scores.AppendNotification(ctx, match.JobID, match.CandidateID, models.Notification{
			Kind:      ledgerKind,
			SentAt:    time.Now().UTC(),
			Recipient: referrerID,
		}); err != nil {
			result.Errors = append(result.Errors, models.ItemError{
				EntityID: match.JobID + ":" + match.CandidateID,
				Message:  err.Error(),
			})
		}
	}

	e.logger.Info("referrer suggestion digest processed", map[string]interface{}{
		"referrerId":  referrerID,
		"suggestions": result.Suggestions,
		"digestSent":  result.DigestSent,
		"errors":      len(result.Errors),
	})
	return result, nil
}
