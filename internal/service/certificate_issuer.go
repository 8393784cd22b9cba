package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/models"
	"github.com/noah-isme/jobboard-api/internal/observability"
	"github.com/noah-isme/jobboard-api/internal/repository"
	"github.com/noah-isme/jobboard-api/pkg/qr"
)

const defaultCodeRetries = 5

// CertificateLinks builds the public URLs attached to a certificate.
type CertificateLinks interface {
	VerificationURL(code string) string
	CertificateDownloadURL(id uint) string
}

// CertificateEvents is told about certificates after they are committed.
type CertificateEvents interface {
	CertificateIssued(ctx context.Context, certificate models.Certificate) error
}

// CertificateIssuer mints at most one certificate per (user, assessment).
type CertificateIssuer struct {
	certificates repository.CertificateRepository
	qr           qr.Generator
	links        CertificateLinks
	events       CertificateEvents
	codeRetries  int
	newCode      func() string
	now          func() time.Time
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewCertificateIssuer builds an issuer. events may be nil.
func NewCertificateIssuer(certificates repository.CertificateRepository, generator qr.Generator, links CertificateLinks, events CertificateEvents, codeRetries int, logger zerolog.Logger) *CertificateIssuer {
	if codeRetries <= 0 {
		codeRetries = defaultCodeRetries
	}
	return &CertificateIssuer{
		certificates: certificates,
		qr:           generator,
		links:        links,
		events:       events,
		codeRetries:  codeRetries,
		newCode:      uuid.NewString,
		now:          time.Now,
		logger:       logger.With().Str("component", "certificate_issuer").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/jobboard-api/internal/service/certificate_issuer"),
	}
}

// IssueIfPassed issues a certificate for a passing attempt. Failures are
// logged and reported as nil so the caller's submission still succeeds.
func (i *CertificateIssuer) IssueIfPassed(ctx context.Context, attempt models.Attempt) *models.Certificate {
	if !attempt.Passed {
		return nil
	}

	certificate, err := i.Issue(ctx, attempt)
	if err != nil {
		i.logger.Error().
			Err(err).
			Uint("attempt_id", attempt.ID).
			Uint("user_id", attempt.UserID).
			Uint("assessment_id", attempt.AssessmentID).
			Msg("certificate issuance failed")
		return nil
	}
	return certificate
}

// Issue returns the holder's certificate for the attempt's assessment,
// creating it when none exists yet. Failing attempts yield nil.
func (i *CertificateIssuer) Issue(ctx context.Context, attempt models.Attempt) (*models.Certificate, error) {
	if !attempt.Passed {
		return nil, nil
	}

	ctx, span := i.tracer.Start(ctx, "certificate.issue", trace.WithAttributes(
		attribute.Int64("attempt.id", int64(attempt.ID)),
		attribute.Int64("assessment.id", int64(attempt.AssessmentID)),
	))
	defer span.End()

	existing, found, err := i.findExisting(ctx, attempt)
	if err != nil {
		return nil, i.fail(span, "lookup", err)
	}
	if found {
		span.SetAttributes(attribute.Bool("certificate.suppressed", true))
		return existing, nil
	}

	for try := 0; try < i.codeRetries; try++ {
		code := i.newCode()
		qrURI, err := i.qr.DataURI(i.links.VerificationURL(code))
		if err != nil {
			return nil, i.fail(span, "qr", err)
		}

		certificate := models.Certificate{
			UserID:           attempt.UserID,
			AssessmentID:     attempt.AssessmentID,
			AttemptID:        attempt.ID,
			VerificationCode: code,
			QRCodeURL:        qrURI,
			IssuedAt:         i.now().UTC(),
		}

		err = i.certificates.Create(ctx, &certificate, i.links.CertificateDownloadURL)
		if err == nil {
			observability.CertificatesIssued().Inc()
			span.SetAttributes(attribute.Int64("certificate.id", int64(certificate.ID)))
			i.logger.Info().
				Uint("certificate_id", certificate.ID).
				Uint("attempt_id", attempt.ID).
				Msg("certificate issued")
			i.announce(ctx, certificate)
			return &certificate, nil
		}
		if !repository.IsUniqueViolation(err) {
			return nil, i.fail(span, "persist", err)
		}

		// A concurrent submission may have certified the same holder.
		existing, found, lookupErr := i.findExisting(ctx, attempt)
		if lookupErr != nil {
			return nil, i.fail(span, "lookup", lookupErr)
		}
		if found {
			span.SetAttributes(attribute.Bool("certificate.suppressed", true))
			return existing, nil
		}
		i.logger.Warn().Uint("attempt_id", attempt.ID).Int("try", try+1).Msg("verification code collision, regenerating")
	}

	return nil, i.fail(span, "code", errors.New("verification code retries exhausted"))
}

func (i *CertificateIssuer) findExisting(ctx context.Context, attempt models.Attempt) (*models.Certificate, bool, error) {
	certificate, err := i.certificates.FindByHolder(ctx, attempt.UserID, attempt.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &certificate, true, nil
}

func (i *CertificateIssuer) announce(ctx context.Context, certificate models.Certificate) {
	if i.events == nil {
		return
	}
	if err := i.events.CertificateIssued(ctx, certificate); err != nil {
		i.logger.Warn().Err(err).Uint("certificate_id", certificate.ID).Msg("failed to publish certificate event")
	}
}

func (i *CertificateIssuer) fail(span trace.Span, stage string, err error) error {
	observability.IssuanceFailures().WithLabelValues(stage).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, stage+"_failed")
	return fmt.Errorf("%w: %s: %w", ErrCertificateIssuance, stage, err)
}
