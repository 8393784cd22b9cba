package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAssessmentNotFound indicates the assessment does not exist, is inactive or is not owned by the caller.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrAttemptNotFound indicates the caller has not attempted the assessment.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrCertificateNotFound indicates the certificate does not exist or is not visible to the caller.
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrAttemptLimitExceeded indicates the caller used every allowed attempt.
	ErrAttemptLimitExceeded = errors.New("attempt limit reached")
	// ErrAssessmentImmutable indicates a scored assessment was about to change.
	ErrAssessmentImmutable = errors.New("scored assessments are frozen")
	// ErrCertificateIssuance wraps failures of the best-effort issuance step.
	ErrCertificateIssuance = errors.New("certificate issuance failed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AttemptLimitError carries the ceiling that was hit.
type AttemptLimitError struct {
	MaxAllowed int
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("attempt limit reached (max %d)", e.MaxAllowed)
}

// Is lets errors.Is match ErrAttemptLimitExceeded.
func (e *AttemptLimitError) Is(target error) bool {
	return target == ErrAttemptLimitExceeded
}
