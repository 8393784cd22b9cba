package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/models"
	"github.com/noah-isme/jobboard-api/internal/repository"
)

const minAssessmentNameLength = 3

// AssessmentService manages the assessments developers publish.
type AssessmentService interface {
	Create(ctx context.Context, developerID uint, payload dto.AssessmentRequest) (dto.DeveloperAssessmentResponse, error)
	Update(ctx context.Context, developerID, id uint, payload dto.AssessmentRequest) (dto.DeveloperAssessmentResponse, error)
	Delete(ctx context.Context, developerID, id uint) error
	ListActive(ctx context.Context) ([]dto.AssessmentSummaryResponse, error)
	Detail(ctx context.Context, id uint) (dto.AssessmentDetailResponse, error)
	ListByDeveloper(ctx context.Context, developerID uint) ([]dto.DeveloperAssessmentResponse, error)
}

type assessmentService struct {
	repo      repository.AssessmentRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAssessmentService builds the assessment service.
func NewAssessmentService(repo repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	return &assessmentService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, developerID uint, payload dto.AssessmentRequest) (dto.DeveloperAssessmentResponse, error) {
	assessment, err := s.build(payload)
	if err != nil {
		return dto.DeveloperAssessmentResponse{}, err
	}
	assessment.DeveloperID = developerID

	if err := s.repo.Create(ctx, &assessment); err != nil {
		return dto.DeveloperAssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", assessment.ID).Uint("developer_id", developerID).Msg("assessment created")
	return dto.NewDeveloperAssessmentResponse(assessment), nil
}

func (s *assessmentService) Update(ctx context.Context, developerID, id uint, payload dto.AssessmentRequest) (dto.DeveloperAssessmentResponse, error) {
	current, err := s.owned(ctx, developerID, id)
	if err != nil {
		return dto.DeveloperAssessmentResponse{}, err
	}

	next, err := s.build(payload)
	if err != nil {
		return dto.DeveloperAssessmentResponse{}, err
	}
	next.ID = current.ID
	next.DeveloperID = current.DeveloperID
	next.CreatedAt = current.CreatedAt

	if err := s.repo.UpdateIfUnattempted(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrAssessmentHasAttempts) {
			return dto.DeveloperAssessmentResponse{}, ErrAssessmentImmutable
		}
		return dto.DeveloperAssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", id).Msg("assessment updated")
	return dto.NewDeveloperAssessmentResponse(next), nil
}

func (s *assessmentService) Delete(ctx context.Context, developerID, id uint) error {
	if _, err := s.owned(ctx, developerID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteIfUnattempted(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrAssessmentHasAttempts):
			return ErrAssessmentImmutable
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrAssessmentNotFound
		default:
			return err
		}
	}

	s.logger.Info().Uint("assessment_id", id).Msg("assessment deleted")
	return nil
}

func (s *assessmentService) ListActive(ctx context.Context) ([]dto.AssessmentSummaryResponse, error) {
	assessments, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewAssessmentSummaryResponseSlice(assessments), nil
}

func (s *assessmentService) Detail(ctx context.Context, id uint) (dto.AssessmentDetailResponse, error) {
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentDetailResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentDetailResponse{}, err
	}
	if !assessment.IsActive {
		return dto.AssessmentDetailResponse{}, ErrAssessmentNotFound
	}
	return dto.NewAssessmentDetailResponse(assessment), nil
}

func (s *assessmentService) ListByDeveloper(ctx context.Context, developerID uint) ([]dto.DeveloperAssessmentResponse, error) {
	assessments, err := s.repo.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, err
	}
	return dto.NewDeveloperAssessmentResponseSlice(assessments), nil
}

func (s *assessmentService) owned(ctx context.Context, developerID, id uint) (models.Assessment, error) {
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, err
	}
	if assessment.DeveloperID != developerID {
		return models.Assessment{}, ErrAssessmentNotFound
	}
	return assessment, nil
}

// build validates the payload and converts it into a storable assessment.
func (s *assessmentService) build(payload dto.AssessmentRequest) (models.Assessment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Assessment{}, err
	}

	name := s.clean(payload.Name)
	if utf8.RuneCountInString(name) < minAssessmentNameLength {
		return models.Assessment{}, newValidationError("name", "must contain at least 3 characters")
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for i, item := range payload.Questions {
		field := fmt.Sprintf("questions[%d]", i)

		text := s.clean(item.Question)
		if text == "" {
			return models.Assessment{}, newValidationError(field+".question", "must not be empty")
		}

		options := make([]string, 0, len(item.Options))
		for j, option := range item.Options {
			if strings.TrimSpace(option) == "" {
				return models.Assessment{}, newValidationError(fmt.Sprintf("%s.options[%d]", field, j), "must not be empty")
			}
			options = append(options, option)
		}

		if *item.Answer >= len(options) {
			return models.Assessment{}, newValidationError(field+".answer", "must reference one of the options")
		}

		questions = append(questions, models.Question{
			Question: text,
			Options:  options,
			Answer:   *item.Answer,
		})
	}

	encoded, err := models.EncodeQuestions(questions)
	if err != nil {
		return models.Assessment{}, err
	}

	assessment := models.Assessment{
		Name:         name,
		Description:  s.clean(payload.Description),
		Questions:    encoded,
		PassingScore: models.DefaultPassingScore,
		TimeLimit:    models.DefaultTimeLimit,
		IsActive:     true,
	}
	if payload.PassingScore != nil {
		assessment.PassingScore = *payload.PassingScore
	}
	if payload.TimeLimit != nil {
		assessment.TimeLimit = *payload.TimeLimit
	}
	if payload.IsActive != nil {
		assessment.IsActive = *payload.IsActive
	}

	return assessment, nil
}

func (s *assessmentService) clean(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(input)))
}
