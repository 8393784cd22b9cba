package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository interface {
	Create(ctx context.Context, certificate *models.Certificate, locator func(id uint) string) error
	GetByID(ctx context.Context, id uint) (models.Certificate, error)
	FindByCode(ctx context.Context, code string) (models.Certificate, error)
	FindByHolder(ctx context.Context, userID, assessmentID uint) (models.Certificate, error)
}

// NewCertificateRepository constructs a certificate repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

type certificateRepository struct {
	db *gorm.DB
}

// Create inserts the certificate and, inside the same transaction, stores the
// document locator derived from the generated id.
func (r *certificateRepository) Create(ctx context.Context, certificate *models.Certificate, locator func(id uint) string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(certificate).Error; err != nil {
			return err
		}
		if locator == nil {
			return nil
		}
		url := locator(certificate.ID)
		if err := tx.Model(&models.Certificate{}).
			Where("id = ?", certificate.ID).
			Update("certificate_url", url).Error; err != nil {
			return err
		}
		certificate.CertificateURL = url
		return nil
	})
}

func (r *certificateRepository) GetByID(ctx context.Context, id uint) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Assessment").
		First(&certificate, id).Error
	if err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) FindByCode(ctx context.Context, code string) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Assessment").
		Where("verification_code = ?", code).
		First(&certificate).Error
	if err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) FindByHolder(ctx context.Context, userID, assessmentID uint) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		First(&certificate).Error
	if err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}
