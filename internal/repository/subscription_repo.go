package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// SubscriptionRepository reads the subscription tier of users.
type SubscriptionRepository interface {
	ListActive(ctx context.Context, userID uint, now time.Time) ([]models.Subscription, error)
}

// NewSubscriptionRepository constructs a subscription repository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

type subscriptionRepository struct {
	db *gorm.DB
}

func (r *subscriptionRepository) ListActive(ctx context.Context, userID uint, now time.Time) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_approved = ? AND UPPER(payment_status) = ? AND end_date >= ?", userID, true, models.PaymentStatusPaid, now).
		Order("end_date DESC").
		Find(&subscriptions).Error
	return subscriptions, err
}
