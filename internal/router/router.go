package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/jobboard-api/internal/config"
	"github.com/noah-isme/jobboard-api/internal/handler"
	"github.com/noah-isme/jobboard-api/internal/middleware"
	"github.com/noah-isme/jobboard-api/internal/models"
	"github.com/noah-isme/jobboard-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler  *handler.AssessmentHandler
	CertificateHandler *handler.CertificateHandler
	JWTMiddleware      fiber.Handler
	HealthChecks       map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AssessmentHandler != nil {
		assessments := api.Group("/assessments", jwtMiddleware)
		limiter := middleware.RateLimit("assessment-submit", cfg.SubmitRateLimit, time.Minute)
		deps.AssessmentHandler.Register(assessments, limiter)
	}

	if deps.CertificateHandler != nil {
		certificates := api.Group("/certificates")
		deps.CertificateHandler.RegisterPublic(certificates)
		deps.CertificateHandler.RegisterProtected(certificates, jwtMiddleware)

		admin := api.Group("/admin/certificates", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.CertificateHandler.RegisterAdmin(admin)
	}
}
