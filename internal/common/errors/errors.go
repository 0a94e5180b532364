// Package errors provides standardized error handling for the match engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeJobNotFound       ErrorCode = "JOB_NOT_FOUND"
	ErrCodeCandidateNotFound ErrorCode = "CANDIDATE_NOT_FOUND"

	ErrCodeInvalidWeights ErrorCode = "INVALID_WEIGHTS"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeScorePersistFailed       ErrorCode = "SCORE_PERSIST_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReferralLookupFailed   ErrorCode = "REFERRAL_LOOKUP_FAILED"

	ErrCodeWebhookSignatureInvalid ErrorCode = "WEBHOOK_SIGNATURE_INVALID"
	ErrCodeWebhookPayloadInvalid   ErrorCode = "WEBHOOK_PAYLOAD_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// Error Constructors
// ==========================

// NewJobNotFoundError creates a non-retryable lookup error for a missing job.
func NewJobNotFoundError(jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobNotFound,
		Message:   "Job not found",
		Details:   fmt.Sprintf("jobId: %s", jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateNotFoundError creates a non-retryable lookup error for a missing candidate.
func NewCandidateNotFoundError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "Candidate not found",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidWeightsError creates a non-retryable validation error.
func NewInvalidWeightsError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidWeights,
		Message:   "Weight profile validation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScorePersistFailedError creates a retryable upsert error.
func NewScorePersistFailedError(jobID, candidateID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScorePersistFailed,
		Message:   "Match score upsert failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"jobId": jobID, "candidateId": candidateID},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable delivery error. The
// dispatcher records it per match but never retries automatically; the ledger
// append already happened.
func NewNotificationSendFailedError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"recipient": recipient},
		Timestamp: time.Now().UTC(),
	}
}

// NewReferralLookupFailedError creates a retryable referral graph error.
func NewReferralLookupFailedError(referrerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReferralLookupFailed,
		Message:   "Referral downline lookup failed",
		Details:   fmt.Sprintf("referrerId: %s, error: %s", referrerID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebhookSignatureInvalidError creates a non-retryable webhook auth error.
func NewWebhookSignatureInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookSignatureInvalid,
		Message:   "Webhook signature verification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebhookPayloadInvalidError creates a non-retryable webhook payload error.
func NewWebhookPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookPayloadInvalid,
		Message:   "Webhook payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Helpers
// ==========================

// IsNotFound reports whether err is a job or candidate lookup miss.
func IsNotFound(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == ErrCodeJobNotFound || stdErr.Code == ErrCodeCandidateNotFound
	}
	return false
}

// CodeOf extracts the error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryable reports whether the error is transient by classification.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}
