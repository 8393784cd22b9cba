package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrAttemptLimitReached is returned when the ledger already holds the maximum
// number of attempts for the (user, assessment) pair.
var ErrAttemptLimitReached = errors.New("attempt limit reached")

// ErrAttemptSequenceContention is returned when concurrent submissions kept
// claiming the same sequence number after every retry.
var ErrAttemptSequenceContention = errors.New("attempt sequence contention")

// ErrAssessmentHasAttempts indicates a mutation was attempted on a scored assessment.
var ErrAssessmentHasAttempts = errors.New("assessment already has attempts")

// IsUniqueViolation reports whether err is a unique-constraint failure. Drivers
// that do not translate errors are matched by message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") ||
		strings.Contains(message, "duplicate key value")
}
