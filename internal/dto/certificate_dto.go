package dto

import (
	"time"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// CertificateHolder is the public identity printed on a certificate.
type CertificateHolder struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CertificateAssessment is the public description of the certified assessment.
type CertificateAssessment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CertificateVerificationResponse answers a public verification lookup.
// Only Valid and Message are set for unknown codes.
type CertificateVerificationResponse struct {
	Valid          bool                   `json:"valid"`
	Message        string                 `json:"message,omitempty"`
	User           *CertificateHolder     `json:"user,omitempty"`
	Assessment     *CertificateAssessment `json:"assessment,omitempty"`
	IssuedAt       *time.Time             `json:"issuedAt,omitempty"`
	ExpiresAt      *time.Time             `json:"expiresAt,omitempty"`
	CertificateURL string                 `json:"certificateUrl,omitempty"`
	QRCodeURL      string                 `json:"qrCodeUrl,omitempty"`
}

// CertificateArchiveResponse reports where a rendered certificate was stored.
type CertificateArchiveResponse struct {
	CertificateID uint   `json:"certificateId"`
	Location      string `json:"location"`
}

// CertificateReconcileRequest bounds one reconciliation pass.
type CertificateReconcileRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=1000"`
}

// CertificateReconcileResponse summarises a reconciliation pass.
type CertificateReconcileResponse struct {
	Scanned int `json:"scanned"`
	Issued  int `json:"issued"`
	Failed  int `json:"failed"`
}

// NewCertificateVerificationResponse maps a certificate loaded with its holder and assessment.
func NewCertificateVerificationResponse(cert models.Certificate, now time.Time) CertificateVerificationResponse {
	issuedAt := cert.IssuedAt
	response := CertificateVerificationResponse{
		Valid: !cert.IsExpired(now),
		User: &CertificateHolder{
			Name:  cert.User.DisplayName(),
			Email: cert.User.Email,
		},
		Assessment: &CertificateAssessment{
			Name:        cert.Assessment.Name,
			Description: cert.Assessment.Description,
		},
		IssuedAt:       &issuedAt,
		ExpiresAt:      cert.ExpiresAt,
		CertificateURL: cert.CertificateURL,
		QRCodeURL:      cert.QRCodeURL,
	}
	if !response.Valid {
		response.Message = "certificate expired"
	}
	return response
}
