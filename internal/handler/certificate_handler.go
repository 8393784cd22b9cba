package handler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/middleware"
	"github.com/noah-isme/jobboard-api/internal/service"
	"github.com/noah-isme/jobboard-api/internal/utils"
)

// CertificateHandler wires certificate verification, download and admin routes.
type CertificateHandler struct {
	service   service.CertificateService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service service.CertificateService, validate *validator.Validate, logger zerolog.Logger) *CertificateHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &CertificateHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated verification endpoint.
func (h *CertificateHandler) RegisterPublic(router fiber.Router) {
	router.Get("/verify/:code", h.verify)
}

// RegisterProtected attaches endpoints that need an authenticated caller.
// authenticate populates the caller identity, typically JWTProtected.
func (h *CertificateHandler) RegisterProtected(router fiber.Router, authenticate fiber.Handler) {
	router.Get("/download/:id", authenticate, middleware.WithAuth(h.download, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
}

// RegisterAdmin attaches maintenance endpoints.
func (h *CertificateHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/reconcile", h.reconcile)
	router.Post("/:id/archive", h.archive)
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	response, err := h.service.Verify(c.UserContext(), c.Params("code"))
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(response)
		}
		return h.internalError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *CertificateHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var document bytes.Buffer
	if err := h.service.Render(c.UserContext(), id, viewerFromContext(c), &document); err != nil {
		return h.handleError(c, err)
	}

	disposition := "inline"
	if c.QueryBool("download", false) {
		disposition = "attachment"
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`%s; filename="certificate-%d.pdf"`, disposition, id))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(fiber.StatusOK).Send(document.Bytes())
}

func (h *CertificateHandler) archive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Archive(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "certificate archived", result)
}

func (h *CertificateHandler) reconcile(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	request := dto.CertificateReconcileRequest{Limit: limit}
	if err := h.validator.Struct(request); err != nil {
		return h.handleError(c, err)
	}

	summary, err := h.service.ReconcilePending(c.UserContext(), request.Limit)
	if err != nil {
		return h.internalError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Int("issued", summary.Issued).
		Int("failed", summary.Failed).
		Msg("certificate reconciliation requested")

	return utils.SendSuccess(c, "certificate reconciliation finished", summary)
}

func (h *CertificateHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCertificateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "certificate not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *CertificateHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
