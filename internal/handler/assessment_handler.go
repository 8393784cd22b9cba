package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/middleware"
	"github.com/noah-isme/jobboard-api/internal/models"
	"github.com/noah-isme/jobboard-api/internal/service"
	"github.com/noah-isme/jobboard-api/internal/utils"
)

// AssessmentHandler wires assessment HTTP routes.
type AssessmentHandler struct {
	assessments service.AssessmentService
	attempts    service.AttemptService
	logger      zerolog.Logger
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(assessments service.AssessmentService, attempts service.AttemptService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		attempts:    attempts,
		logger:      logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register attaches assessment endpoints to an authenticated router group.
// submitLimiter may be nil.
func (h *AssessmentHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	if submitLimiter == nil {
		submitLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	asUser := middleware.RequireRole(models.RoleUser)
	asDeveloper := middleware.RequireRole(models.RoleDeveloper)

	router.Get("", asUser, h.listActive)
	router.Post("", asDeveloper, h.create)
	router.Get("/developer/all", asDeveloper, h.listOwned)
	router.Get("/me/results", asUser, h.listResults)
	router.Get("/:id/detail", asUser, h.detail)
	router.Get("/:id/result", asUser, h.result)
	router.Post("/:id/submit", asUser, submitLimiter, h.submit)
	router.Put("/:id", asDeveloper, h.update)
	router.Delete("/:id", asDeveloper, h.delete)
}

func (h *AssessmentHandler) listActive(c *fiber.Ctx) error {
	assessments, err := h.assessments.ListActive(c.UserContext())
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.OK(c, assessments, "assessments retrieved", fiber.Map{"total": len(assessments)})
}

func (h *AssessmentHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assessment, err := h.assessments.Detail(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessment retrieved", assessment)
}

func (h *AssessmentHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitAssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.attempts.Submit(c.UserContext(), middleware.CallerID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("assessment_id", id).
		Uint("attempt_id", result.ID).
		Bool("passed", result.Passed).
		Msg("assessment submitted")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment submitted", result)
}

func (h *AssessmentHandler) result(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.attempts.GetResult(c.UserContext(), middleware.CallerID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessment result retrieved", result)
}

func (h *AssessmentHandler) listResults(c *fiber.Ctx) error {
	results, err := h.attempts.ListResults(c.UserContext(), middleware.CallerID(c))
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.OK(c, results, "assessment results retrieved", fiber.Map{"total": len(results)})
}

func (h *AssessmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assessment, err := h.assessments.Create(c.UserContext(), middleware.CallerID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment created", assessment)
}

func (h *AssessmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assessment, err := h.assessments.Update(c.UserContext(), middleware.CallerID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessment updated", assessment)
}

func (h *AssessmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.assessments.Delete(c.UserContext(), middleware.CallerID(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessment deleted", fiber.Map{"id": id})
}

func (h *AssessmentHandler) listOwned(c *fiber.Ctx) error {
	assessments, err := h.assessments.ListByDeveloper(c.UserContext(), middleware.CallerID(c))
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.SendSuccess(c, "assessments retrieved", assessments)
}

func (h *AssessmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var fieldError *service.ValidationError
	var limitError *service.AttemptLimitError
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment result not found")
	case errors.As(err, &limitError):
		return utils.Fail(c, fiber.StatusForbidden, "attempt limit reached", fiber.Map{
			"maxAllowedAttempts": limitError.MaxAllowed,
		})
	case errors.Is(err, service.ErrAssessmentImmutable):
		return utils.SendError(c, fiber.StatusConflict, service.ErrAssessmentImmutable.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.As(err, &fieldError):
		return utils.Fail(c, fiber.StatusBadRequest, fieldError.Error(), fiber.Map{"field": fieldError.Field})
	default:
		return h.internalError(c, err)
	}
}

func (h *AssessmentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
