package models

import "time"

// Certificate is the immutable proof that a user passed an assessment.
// A user holds at most one certificate per assessment; AttemptID points at
// the passing attempt that minted it.
type Certificate struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex:idx_certificate_holder,priority:1" json:"user_id"`
	AssessmentID     uint       `gorm:"not null;uniqueIndex:idx_certificate_holder,priority:2" json:"assessment_id"`
	AttemptID        uint       `gorm:"not null;uniqueIndex" json:"attempt_id"`
	VerificationCode string     `gorm:"size:64;not null;uniqueIndex" json:"verification_code"`
	CertificateURL   string     `gorm:"type:text" json:"certificate_url"`
	QRCodeURL        string     `gorm:"type:text" json:"qr_code_url"`
	IssuedAt         time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	User             User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assessment       Assessment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// IsExpired reports whether the certificate carries an expiry that has passed.
func (c Certificate) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
