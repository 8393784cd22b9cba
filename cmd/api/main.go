package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jobboard-api/internal/config"
	"github.com/noah-isme/jobboard-api/internal/database"
	"github.com/noah-isme/jobboard-api/internal/handler"
	"github.com/noah-isme/jobboard-api/internal/middleware"
	"github.com/noah-isme/jobboard-api/internal/repository"
	"github.com/noah-isme/jobboard-api/internal/router"
	"github.com/noah-isme/jobboard-api/internal/service"
	"github.com/noah-isme/jobboard-api/pkg/certpdf"
	cloud "github.com/noah-isme/jobboard-api/pkg/cloudinary"
	"github.com/noah-isme/jobboard-api/pkg/qr"
	"github.com/noah-isme/jobboard-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, certificate events disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	documents, err := certificateStorage(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure certificate storage: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	qrEncoder := qr.NewEncoder(qr.DefaultSize)

	assessmentRepo := repository.NewAssessmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	var events service.CertificateEvents
	if publisher := service.NewNATSCertificateEvents(natsConn, cfg.NATSSubjectPrefix); publisher != nil {
		events = publisher
	}

	issuer := service.NewCertificateIssuer(certificateRepo, qrEncoder, cfg, events, cfg.CertificateCodeRetries, logger)
	policy := service.NewAttemptPolicy(subscriptionRepo, cfg.DefaultAttemptLimit, cfg.UnlimitedTiers)

	assessmentService := service.NewAssessmentService(assessmentRepo, validate, logger)
	attemptService := service.NewAttemptService(service.AttemptServiceConfig{
		Assessments:  assessmentRepo,
		Attempts:     attemptRepo,
		Certificates: certificateRepo,
		Policy:       policy,
		Issuer:       issuer,
		Validator:    validate,
		Cache:        redisClient,
		CacheTTL:     cfg.ResultCacheTTL,
		Logger:       logger,
	})
	certificateService := service.NewCertificateService(service.CertificateServiceConfig{
		Certificates: certificateRepo,
		Attempts:     attemptRepo,
		Issuer:       issuer,
		Renderer:     certpdf.NewRenderer(cfg.CertificateDateLayout),
		QR:           qrEncoder,
		Links:        cfg,
		Storage:      documents,
		Cache:        redisClient,
		CacheTTL:     cfg.VerificationCacheTTL,
		Logger:       logger,
	})

	worker := service.NewCertificateArchiveWorker(natsConn, cfg.NATSSubjectPrefix, certificateService, logger)
	if err := worker.Start(rootCtx); err != nil {
		logger.Error().Err(err).Msg("certificate archive worker not started")
	}
	go service.RunCertificateReconciler(rootCtx, certificateService, cfg.CertificateReconcileEvery, 0, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.FrontendURL})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler:  handler.NewAssessmentHandler(assessmentService, attemptService, logger),
		CertificateHandler: handler.NewCertificateHandler(certificateService, validate, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		HealthChecks: map[string]handler.HealthProbe{
			"database": database.SQLProbe(db),
			"redis":    database.RedisProbe(redisClient),
			"nats":     database.NATSProbe(natsConn),
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(rootCtx, app)
}

func certificateStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, error) {
	if cfg.CertificateStorage == "cloudinary" {
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return storage.NewLocalStore(cfg.CertificateDir, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
