package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/jobboard-api/internal/models"
)

const (
	attemptSequenceRetries = 5
	// Several passing attempts can share one (user, assessment) pair; scan a
	// wider window so deduplication still fills the requested limit.
	reconcileScanFactor = 4
)

// AttemptRepository is the append-only ledger of assessment attempts.
type AttemptRepository interface {
	CreateWithinLimit(ctx context.Context, attempt *models.Attempt, maxAllowed int) error
	Count(ctx context.Context, userID, assessmentID uint) (int64, error)
	Latest(ctx context.Context, userID, assessmentID uint) (models.Attempt, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error)
	ListPassedWithoutCertificate(ctx context.Context, limit int) ([]models.Attempt, error)
}

// NewAttemptRepository constructs an attempt repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

type attemptRepository struct {
	db *gorm.DB
}

// CreateWithinLimit counts the existing attempts and inserts the new one in a
// single transaction. maxAllowed <= 0 means unlimited. The attempt receives the
// next sequence number; when a concurrent insert wins the same number the
// unique index rejects this one and the whole check is repeated.
func (r *attemptRepository) CreateWithinLimit(ctx context.Context, attempt *models.Attempt, maxAllowed int) error {
	for i := 0; i < attemptSequenceRetries; i++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Attempt{}).
				Where("user_id = ? AND assessment_id = ?", attempt.UserID, attempt.AssessmentID).
				Count(&count).Error; err != nil {
				return err
			}
			if maxAllowed > 0 && count >= int64(maxAllowed) {
				return ErrAttemptLimitReached
			}

			var last int
			if err := tx.Model(&models.Attempt{}).
				Where("user_id = ? AND assessment_id = ?", attempt.UserID, attempt.AssessmentID).
				Select("COALESCE(MAX(sequence), 0)").
				Row().Scan(&last); err != nil {
				return err
			}

			attempt.ID = 0
			attempt.Sequence = last + 1
			return tx.Omit(clause.Associations).Create(attempt).Error
		})
		if IsUniqueViolation(err) {
			continue
		}
		return err
	}
	return ErrAttemptSequenceContention
}

func (r *attemptRepository) Count(ctx context.Context, userID, assessmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) Latest(ctx context.Context, userID, assessmentID uint) (models.Attempt, error) {
	var attempt models.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Order("sequence DESC").
		First(&attempt).Error
	if err != nil {
		return models.Attempt{}, err
	}
	return attempt, nil
}

func (r *attemptRepository) ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		Preload("Certificate").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListPassedWithoutCertificate returns the first passing attempt of every
// (user, assessment) pair that holds no certificate yet.
func (r *attemptRepository) ListPassedWithoutCertificate(ctx context.Context, limit int) ([]models.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}

	holders := r.db.Model(&models.Certificate{}).
		Select("1").
		Where("certificates.user_id = attempts.user_id AND certificates.assessment_id = attempts.assessment_id")

	var candidates []models.Attempt
	err := r.db.WithContext(ctx).
		Where("passed = ?", true).
		Where("NOT EXISTS (?)", holders).
		Order("id ASC").
		Limit(limit * reconcileScanFactor).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	type pair struct{ user, assessment uint }
	seen := make(map[pair]struct{}, len(candidates))
	attempts := make([]models.Attempt, 0, len(candidates))
	for _, candidate := range candidates {
		key := pair{candidate.UserID, candidate.AssessmentID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		attempts = append(attempts, candidate)
		if len(attempts) == limit {
			break
		}
	}
	return attempts, nil
}
