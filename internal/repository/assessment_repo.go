package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// AssessmentRepository exposes persistence helpers for assessments.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	ListActive(ctx context.Context) ([]models.Assessment, error)
	ListByDeveloper(ctx context.Context, developerID uint) ([]models.Assessment, error)
	UpdateIfUnattempted(ctx context.Context, assessment *models.Assessment) error
	DeleteIfUnattempted(ctx context.Context, id uint) error
}

// NewAssessmentRepository constructs an assessment repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

type assessmentRepository struct {
	db *gorm.DB
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}

func (r *assessmentRepository) ListActive(ctx context.Context) ([]models.Assessment, error) {
	var assessments []models.Assessment
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&assessments).Error
	return assessments, err
}

func (r *assessmentRepository) ListByDeveloper(ctx context.Context, developerID uint) ([]models.Assessment, error) {
	var assessments []models.Assessment
	err := r.db.WithContext(ctx).
		Where("developer_id = ?", developerID).
		Order("created_at DESC").
		Find(&assessments).Error
	return assessments, err
}

// UpdateIfUnattempted saves the assessment only while no attempt references it.
func (r *assessmentRepository) UpdateIfUnattempted(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnattempted(tx, assessment.ID); err != nil {
			return err
		}
		return tx.Model(assessment).Select(
			"Name", "Description", "Questions", "PassingScore", "TimeLimit", "IsActive", "UpdatedAt",
		).Updates(assessment).Error
	})
}

// DeleteIfUnattempted removes the assessment only while no attempt references it.
func (r *assessmentRepository) DeleteIfUnattempted(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnattempted(tx, id); err != nil {
			return err
		}
		result := tx.Delete(&models.Assessment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func ensureUnattempted(tx *gorm.DB, assessmentID uint) error {
	var count int64
	if err := tx.Model(&models.Attempt{}).Where("assessment_id = ?", assessmentID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAssessmentHasAttempts
	}
	return nil
}
