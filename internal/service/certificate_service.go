package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/models"
	"github.com/noah-isme/jobboard-api/internal/observability"
	"github.com/noah-isme/jobboard-api/internal/repository"
	"github.com/noah-isme/jobboard-api/pkg/certpdf"
	"github.com/noah-isme/jobboard-api/pkg/qr"
)

const defaultReconcileLimit = 100

// FileStorage persists binary documents and returns their locator.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// Viewer identifies who asks for a certificate document.
type Viewer struct {
	UserID uint
	Role   string
}

// CertificateService serves verification lookups and certificate documents.
type CertificateService interface {
	Verify(ctx context.Context, code string) (dto.CertificateVerificationResponse, error)
	Render(ctx context.Context, id uint, viewer Viewer, w io.Writer) error
	Archive(ctx context.Context, id uint) (dto.CertificateArchiveResponse, error)
	ReconcilePending(ctx context.Context, limit int) (dto.CertificateReconcileResponse, error)
}

// CertificateServiceConfig groups the collaborators of the certificate service.
type CertificateServiceConfig struct {
	Certificates repository.CertificateRepository
	Attempts     repository.AttemptRepository
	Issuer       *CertificateIssuer
	Renderer     *certpdf.Renderer
	QR           qr.Generator
	Links        CertificateLinks
	Storage      FileStorage
	Cache        *redis.Client
	CacheTTL     time.Duration
	Logger       zerolog.Logger
}

type certificateService struct {
	certificates repository.CertificateRepository
	attempts     repository.AttemptRepository
	issuer       *CertificateIssuer
	renderer     *certpdf.Renderer
	qr           qr.Generator
	links        CertificateLinks
	storage      FileStorage
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewCertificateService builds the certificate service.
func NewCertificateService(cfg CertificateServiceConfig) CertificateService {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = certpdf.NewRenderer("")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &certificateService{
		certificates: cfg.Certificates,
		attempts:     cfg.Attempts,
		issuer:       cfg.Issuer,
		renderer:     renderer,
		qr:           cfg.QR,
		links:        cfg.Links,
		storage:      cfg.Storage,
		cache:        cfg.Cache,
		cacheTTL:     ttl,
		logger:       cfg.Logger.With().Str("component", "certificate_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/jobboard-api/internal/service/certificate"),
		now:          time.Now,
	}
}

// Verify looks a certificate up by its exact verification code. Unknown codes
// return an invalid response together with ErrCertificateNotFound.
func (s *certificateService) Verify(ctx context.Context, code string) (dto.CertificateVerificationResponse, error) {
	invalid := dto.CertificateVerificationResponse{Valid: false, Message: "certificate not found or invalid"}
	if code == "" {
		observability.VerificationLookups().WithLabelValues("unknown").Inc()
		return invalid, ErrCertificateNotFound
	}

	cacheKey := "certificate:verify:" + code
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CertificateVerificationResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.refreshExpiry(&response)
				s.countVerification(response)
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read verification cache")
		}
	}

	certificate, err := s.certificates.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.VerificationLookups().WithLabelValues("unknown").Inc()
			return invalid, ErrCertificateNotFound
		}
		return dto.CertificateVerificationResponse{}, err
	}

	response := dto.NewCertificateVerificationResponse(certificate, s.now())
	s.countVerification(response)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store verification cache")
			}
		}
	}

	return response, nil
}

// Render streams the certificate PDF to w. Only the holder and admins may
// read it; everyone else sees ErrCertificateNotFound.
func (s *certificateService) Render(ctx context.Context, id uint, viewer Viewer, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "certificate.render", trace.WithAttributes(
		attribute.Int64("certificate.id", int64(id)),
		attribute.String("certificate.render_mode", "stream"),
	))
	defer span.End()

	certificate, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !canView(viewer, certificate) {
		span.SetStatus(codes.Error, "not_owner")
		return ErrCertificateNotFound
	}

	if err := s.renderer.Render(w, s.document(certificate)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render_failed")
		return err
	}

	observability.CertificateRenders().WithLabelValues("stream").Inc()
	return nil
}

// Archive renders the certificate and stores it as {id}.pdf.
func (s *certificateService) Archive(ctx context.Context, id uint) (dto.CertificateArchiveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.archive", trace.WithAttributes(
		attribute.Int64("certificate.id", int64(id)),
		attribute.String("certificate.render_mode", "archive"),
	))
	defer span.End()

	if s.storage == nil {
		return dto.CertificateArchiveResponse{}, errors.New("certificate storage is not configured")
	}

	certificate, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.CertificateArchiveResponse{}, err
	}

	document, err := s.renderer.Bytes(s.document(certificate))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render_failed")
		return dto.CertificateArchiveResponse{}, err
	}

	if detected := mimetype.Detect(document); !detected.Is("application/pdf") {
		err := fmt.Errorf("rendered certificate has unexpected type %s", detected.String())
		span.SetStatus(codes.Error, "unexpected_mime")
		return dto.CertificateArchiveResponse{}, err
	}

	location, err := s.storage.Upload(ctx, archiveName(certificate.ID), bytes.NewReader(document))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload_failed")
		return dto.CertificateArchiveResponse{}, fmt.Errorf("store certificate: %w", err)
	}

	observability.CertificateRenders().WithLabelValues("archive").Inc()
	s.logger.Info().Uint("certificate_id", certificate.ID).Str("location", location).Msg("certificate archived")

	return dto.CertificateArchiveResponse{CertificateID: certificate.ID, Location: location}, nil
}

// ReconcilePending issues certificates for passing attempts whose issuance
// failed earlier.
func (s *certificateService) ReconcilePending(ctx context.Context, limit int) (dto.CertificateReconcileResponse, error) {
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	if s.issuer == nil {
		return dto.CertificateReconcileResponse{}, errors.New("certificate issuer is not configured")
	}

	attempts, err := s.attempts.ListPassedWithoutCertificate(ctx, limit)
	if err != nil {
		return dto.CertificateReconcileResponse{}, err
	}

	summary := dto.CertificateReconcileResponse{Scanned: len(attempts)}
	for _, attempt := range attempts {
		if _, err := s.issuer.Issue(ctx, attempt); err != nil {
			summary.Failed++
			s.logger.Error().
				Err(err).
				Uint("attempt_id", attempt.ID).
				Uint("user_id", attempt.UserID).
				Uint("assessment_id", attempt.AssessmentID).
				Msg("certificate reconciliation failed")
			continue
		}
		summary.Issued++
		if s.cache != nil {
			if err := s.cache.Del(ctx, resultCacheKey(attempt.UserID, attempt.AssessmentID)).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to invalidate result cache")
			}
		}
	}

	if summary.Scanned > 0 {
		s.logger.Info().
			Int("scanned", summary.Scanned).
			Int("issued", summary.Issued).
			Int("failed", summary.Failed).
			Msg("certificate reconciliation finished")
	}

	return summary, nil
}

func (s *certificateService) load(ctx context.Context, id uint) (models.Certificate, error) {
	certificate, err := s.certificates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Certificate{}, ErrCertificateNotFound
		}
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (s *certificateService) document(certificate models.Certificate) certpdf.Document {
	return certpdf.Document{
		HolderName:     certificate.User.DisplayName(),
		AssessmentName: certificate.Assessment.Name,
		IssuedAt:       certificate.IssuedAt,
		QRCode:         s.qrImage(certificate),
	}
}

// qrImage decodes the stored QR locator, regenerating the image from the
// verification URL when the stored one is unusable.
func (s *certificateService) qrImage(certificate models.Certificate) []byte {
	if strings.TrimSpace(certificate.QRCodeURL) == "" {
		return nil
	}

	png, err := qr.DecodeDataURI(certificate.QRCodeURL)
	if err == nil && mimetype.Detect(png).Is("image/png") {
		return png
	}

	if s.qr == nil || s.links == nil {
		return nil
	}
	png, err = s.qr.PNG(s.links.VerificationURL(certificate.VerificationCode))
	if err != nil {
		s.logger.Warn().Err(err).Uint("certificate_id", certificate.ID).Msg("omitting qr image from certificate")
		return nil
	}
	return png
}

func (s *certificateService) refreshExpiry(response *dto.CertificateVerificationResponse) {
	if response.Valid && response.ExpiresAt != nil && s.now().After(*response.ExpiresAt) {
		response.Valid = false
		response.Message = "certificate expired"
	}
}

func (s *certificateService) countVerification(response dto.CertificateVerificationResponse) {
	result := "valid"
	if !response.Valid {
		result = "expired"
	}
	observability.VerificationLookups().WithLabelValues(result).Inc()
}

func canView(viewer Viewer, certificate models.Certificate) bool {
	if strings.EqualFold(viewer.Role, models.RoleAdmin) {
		return true
	}
	return viewer.UserID != 0 && viewer.UserID == certificate.UserID
}

func archiveName(id uint) string {
	return fmt.Sprintf("%d.pdf", id)
}
