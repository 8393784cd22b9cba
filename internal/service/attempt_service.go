package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
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
)

// AttemptService scores submissions and reports results.
type AttemptService interface {
	Submit(ctx context.Context, userID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmitAssessmentResponse, error)
	GetResult(ctx context.Context, userID, assessmentID uint) (dto.AssessmentResultResponse, error)
	ListResults(ctx context.Context, userID uint) ([]dto.AttemptHistoryItem, error)
}

// MaxAttemptsResolver returns a user's attempt ceiling, or Unlimited.
type MaxAttemptsResolver interface {
	MaxAttempts(ctx context.Context, userID uint) (int, error)
}

// AttemptServiceConfig groups the collaborators of the attempt service.
type AttemptServiceConfig struct {
	Assessments  repository.AssessmentRepository
	Attempts     repository.AttemptRepository
	Certificates repository.CertificateRepository
	Policy       MaxAttemptsResolver
	Issuer       *CertificateIssuer
	Validator    *validator.Validate
	Cache        *redis.Client
	CacheTTL     time.Duration
	Logger       zerolog.Logger
}

type attemptService struct {
	assessments  repository.AssessmentRepository
	attempts     repository.AttemptRepository
	certificates repository.CertificateRepository
	policy       MaxAttemptsResolver
	issuer       *CertificateIssuer
	validator    *validator.Validate
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewAttemptService builds the attempt service.
func NewAttemptService(cfg AttemptServiceConfig) AttemptService {
	validate := cfg.Validator
	if validate == nil {
		validate = validator.New()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &attemptService{
		assessments:  cfg.Assessments,
		attempts:     cfg.Attempts,
		certificates: cfg.Certificates,
		policy:       cfg.Policy,
		issuer:       cfg.Issuer,
		validator:    validate,
		cache:        cfg.Cache,
		cacheTTL:     ttl,
		logger:       cfg.Logger.With().Str("component", "attempt_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/jobboard-api/internal/service/attempt"),
	}
}

func (s *attemptService) Submit(ctx context.Context, userID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmitAssessmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.submit", trace.WithAttributes(
		attribute.Int64("assessment.id", int64(assessmentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		observability.AssessmentAttempts().WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitAssessmentResponse{}, err
	}

	assessment, err := s.loadActiveAssessment(ctx, assessmentID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAssessmentResponse{}, err
	}

	result, err := ScoreSubmission(assessment, payload.Answers)
	if err != nil {
		observability.AssessmentAttempts().WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitAssessmentResponse{}, err
	}

	maxAllowed, err := s.policy.MaxAttempts(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAssessmentResponse{}, fmt.Errorf("resolve attempt limit: %w", err)
	}

	answers, err := json.Marshal(payload.Answers)
	if err != nil {
		return dto.SubmitAssessmentResponse{}, err
	}

	attempt := models.Attempt{
		UserID:       userID,
		AssessmentID: assessment.ID,
		Answers:      answers,
		Score:        result.Score,
		Passed:       result.Passed,
	}
	if result.Passed {
		attempt.Badge = assessment.Name
	}

	if err := s.attempts.CreateWithinLimit(ctx, &attempt, maxAllowed); err != nil {
		if errors.Is(err, repository.ErrAttemptLimitReached) {
			observability.AssessmentAttempts().WithLabelValues("limited").Inc()
			span.SetStatus(codes.Error, "attempt_limit_reached")
			return dto.SubmitAssessmentResponse{}, &AttemptLimitError{MaxAllowed: maxAllowed}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_persist_failed")
		return dto.SubmitAssessmentResponse{}, err
	}

	outcome := "failed"
	if attempt.Passed {
		outcome = "passed"
	}
	observability.AssessmentAttempts().WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.Int("attempt.score", attempt.Score),
		attribute.Bool("attempt.passed", attempt.Passed),
		attribute.Int("attempt.sequence", attempt.Sequence),
	)

	s.invalidateResult(ctx, userID, assessment.ID)

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Uint("user_id", userID).
		Uint("assessment_id", assessment.ID).
		Int("score", attempt.Score).
		Bool("passed", attempt.Passed).
		Msg("assessment attempt recorded")

	response := dto.SubmitAssessmentResponse{AttemptResponse: dto.NewAttemptResponse(attempt)}
	if s.issuer != nil {
		if certificate := s.issuer.IssueIfPassed(ctx, attempt); certificate != nil {
			id := certificate.ID
			response.CertificateID = &id
		}
	}

	return response, nil
}

func (s *attemptService) GetResult(ctx context.Context, userID, assessmentID uint) (dto.AssessmentResultResponse, error) {
	cacheKey := resultCacheKey(userID, assessmentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.AssessmentResultResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Uint("assessment_id", assessmentID).Msg("result cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read result cache")
		}
	}

	latest, err := s.attempts.Latest(ctx, userID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResultResponse{}, ErrAttemptNotFound
		}
		return dto.AssessmentResultResponse{}, err
	}

	total, err := s.attempts.Count(ctx, userID, assessmentID)
	if err != nil {
		return dto.AssessmentResultResponse{}, err
	}

	maxAllowed, err := s.policy.MaxAttempts(ctx, userID)
	if err != nil {
		return dto.AssessmentResultResponse{}, fmt.Errorf("resolve attempt limit: %w", err)
	}

	response := dto.AssessmentResultResponse{
		AttemptResponse:   dto.NewAttemptResponse(latest),
		TotalAttempts:     total,
		CertificateStatus: dto.CertificateStatusNotEligible,
	}

	if maxAllowed != Unlimited {
		limit := maxAllowed
		remaining := maxAllowed - int(total)
		if remaining < 0 {
			remaining = 0
		}
		response.MaxAllowedAttempts = &limit
		response.RemainingAttempts = &remaining
	}

	certificate, err := s.certificates.FindByHolder(ctx, userID, assessmentID)
	switch {
	case err == nil:
		id := certificate.ID
		response.CertificateID = &id
		response.CertificateStatus = dto.CertificateStatusIssued
	case errors.Is(err, gorm.ErrRecordNotFound):
		if latest.Passed {
			response.CertificateStatus = dto.CertificateStatusPending
		}
	default:
		return dto.AssessmentResultResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store result cache")
			}
		}
	}

	return response, nil
}

func (s *attemptService) ListResults(ctx context.Context, userID uint) ([]dto.AttemptHistoryItem, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewAttemptHistory(attempts), nil
}

func (s *attemptService) loadActiveAssessment(ctx context.Context, id uint) (models.Assessment, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, err
	}
	if !assessment.IsActive {
		return models.Assessment{}, ErrAssessmentNotFound
	}
	return assessment, nil
}

func (s *attemptService) invalidateResult(ctx context.Context, userID, assessmentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, resultCacheKey(userID, assessmentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate result cache")
	}
}

func resultCacheKey(userID, assessmentID uint) string {
	return fmt.Sprintf("assessment:result:%d:%d", userID, assessmentID)
}
