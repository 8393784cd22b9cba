package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/config"
	"github.com/noah-isme/jobboard-api/internal/database"
	"github.com/noah-isme/jobboard-api/internal/handler"
	"github.com/noah-isme/jobboard-api/internal/middleware"
	"github.com/noah-isme/jobboard-api/internal/models"
	"github.com/noah-isme/jobboard-api/internal/repository"
	"github.com/noah-isme/jobboard-api/internal/router"
	"github.com/noah-isme/jobboard-api/internal/service"
	"github.com/noah-isme/jobboard-api/pkg/certpdf"
	"github.com/noah-isme/jobboard-api/pkg/qr"
	"github.com/noah-isme/jobboard-api/pkg/storage"
)

const testSecret = "secret"

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func setupApp(t *testing.T) testApp {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{
		AppName:             "Job Board API",
		JWTSecret:           testSecret,
		FrontendURL:         "https://jobs.test",
		PublicAPIURL:        "https://api.test",
		DefaultAttemptLimit: 2,
		UnlimitedTiers:      []string{models.SubscriptionTierProfessional},
		SubmitRateLimit:     100,
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	encoder := qr.NewEncoder(0)
	store, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)

	assessmentRepo := repository.NewAssessmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	issuer := service.NewCertificateIssuer(certificateRepo, encoder, cfg, nil, 3, logger)
	policy := service.NewAttemptPolicy(subscriptionRepo, cfg.DefaultAttemptLimit, cfg.UnlimitedTiers)
	assessmentService := service.NewAssessmentService(assessmentRepo, validate, logger)
	attemptService := service.NewAttemptService(service.AttemptServiceConfig{
		Assessments:  assessmentRepo,
		Attempts:     attemptRepo,
		Certificates: certificateRepo,
		Policy:       policy,
		Issuer:       issuer,
		Validator:    validate,
		Logger:       logger,
	})
	certificateService := service.NewCertificateService(service.CertificateServiceConfig{
		Certificates: certificateRepo,
		Attempts:     attemptRepo,
		Issuer:       issuer,
		Renderer:     certpdf.NewRenderer(""),
		QR:           encoder,
		Links:        cfg,
		Storage:      store,
		Logger:       logger,
	})

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler:  handler.NewAssessmentHandler(assessmentService, attemptService, logger),
		CertificateHandler: handler.NewCertificateHandler(certificateService, validate, logger),
		JWTMiddleware:      middleware.JWTProtected(testSecret),
	})

	return testApp{app: app, db: db}
}

func (a testApp) createUser(t *testing.T, name, role string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com", Role: role}
	require.NoError(t, a.db.Create(&user).Error)
	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprint(user.ID),
		"role": user.Role,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (a testApp) do(t *testing.T, method, path string, user *models.User, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != nil {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tokenFor(t, *user))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response, target *T) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), string(data))
}

type envelope[T any] struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    T                      `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func quizPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":        "Go Fundamentals",
		"description": "Syntax and tooling",
		"questions": []map[string]interface{}{
			{"question": "Which command formats code?", "options": []string{"go fmt", "go vet"}, "answer": 0},
			{"question": "Which keyword defers a call?", "options": []string{"later", "defer"}, "answer": 1},
		},
	}
}

func timeFarAhead() time.Time {
	return time.Now().UTC().AddDate(1, 0, 0)
}
