package models

import (
	"strings"
	"time"
)

// Subscription tiers sold by the billing service.
const (
	SubscriptionTierStandard     = "STANDARD"
	SubscriptionTierProfessional = "PROFESSIONAL"
)

// PaymentStatusPaid marks a settled subscription invoice.
const PaymentStatusPaid = "PAID"

// Subscription is the paid plan of a user. Rows are written by the billing
// flow; the assessment module only reads the tier.
type Subscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Type          string    `gorm:"size:32;not null" json:"type"`
	PaymentStatus string    `gorm:"size:32;not null" json:"payment_status"`
	IsApproved    bool      `gorm:"not null" json:"is_approved"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `gorm:"index" json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the subscription is approved, paid and not expired at now.
func (s Subscription) IsActive(now time.Time) bool {
	return s.IsApproved &&
		strings.EqualFold(s.PaymentStatus, PaymentStatusPaid) &&
		!s.EndDate.Before(now)
}
