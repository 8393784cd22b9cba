package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                   string
	AppEnv                    string
	AppPort                   string
	DatabaseDriver            string
	DatabaseURL               string
	RedisURL                  string
	NATSURL                   string
	NATSSubjectPrefix         string
	JWTSecret                 string
	FrontendURL               string
	PublicAPIURL              string
	CertificateStorage        string
	CertificateDir            string
	CertificateDateLayout     string
	CertificateCodeRetries    int
	CertificateReconcileEvery time.Duration
	CloudinaryCloudName       string
	CloudinaryAPIKey          string
	CloudinaryAPISecret       string
	CloudinaryUploadFolder    string
	DefaultAttemptLimit       int
	UnlimitedTiers            []string
	ResultCacheTTL            time.Duration
	VerificationCacheTTL      time.Duration
	SubmitRateLimit           int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// VerificationURL builds the public link encoded into certificate QR codes.
func (c Config) VerificationURL(code string) string {
	return fmt.Sprintf("%s/certificate/verify/%s", strings.TrimRight(c.FrontendURL, "/"), code)
}

// CertificateDownloadURL builds the document locator stored on issued certificates.
func (c Config) CertificateDownloadURL(id uint) string {
	return fmt.Sprintf("%s/api/v1/certificates/download/%d", strings.TrimRight(c.PublicAPIURL, "/"), id)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("JOBBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Job Board API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject_prefix", "jobboard")
	v.SetDefault("frontend.url", "http://localhost:3000")
	v.SetDefault("public_api.url", "http://localhost:8080")
	v.SetDefault("certificate.storage", "local")
	v.SetDefault("certificate.dir", "public/certificates")
	v.SetDefault("certificate.date_layout", "January 2, 2006")
	v.SetDefault("certificate.code_retries", 5)
	v.SetDefault("certificate.reconcile_interval", "0s")
	v.SetDefault("cloudinary.folder", "jobboard/certificates")
	v.SetDefault("assessment.default_attempt_limit", 2)
	v.SetDefault("assessment.unlimited_tiers", "PROFESSIONAL")
	v.SetDefault("cache.result_ttl", "2m")
	v.SetDefault("cache.verification_ttl", "10m")
	v.SetDefault("rate_limit.submit_per_minute", 10)

	resultTTL, err := parseDuration(v, "cache.result_ttl")
	if err != nil {
		return Config{}, err
	}

	verificationTTL, err := parseDuration(v, "cache.verification_ttl")
	if err != nil {
		return Config{}, err
	}

	reconcileEvery, err := parseDuration(v, "certificate.reconcile_interval")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                   v.GetString("app.name"),
		AppEnv:                    v.GetString("app.env"),
		AppPort:                   v.GetString("app.port"),
		DatabaseDriver:            strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:               v.GetString("database.url"),
		RedisURL:                  v.GetString("redis.url"),
		NATSURL:                   v.GetString("nats.url"),
		NATSSubjectPrefix:         v.GetString("nats.subject_prefix"),
		JWTSecret:                 v.GetString("jwt.secret"),
		FrontendURL:               v.GetString("frontend.url"),
		PublicAPIURL:              v.GetString("public_api.url"),
		CertificateStorage:        strings.ToLower(strings.TrimSpace(v.GetString("certificate.storage"))),
		CertificateDir:            v.GetString("certificate.dir"),
		CertificateDateLayout:     v.GetString("certificate.date_layout"),
		CertificateCodeRetries:    v.GetInt("certificate.code_retries"),
		CertificateReconcileEvery: reconcileEvery,
		CloudinaryCloudName:       v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:          v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:       v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder:    v.GetString("cloudinary.folder"),
		DefaultAttemptLimit:       v.GetInt("assessment.default_attempt_limit"),
		UnlimitedTiers:            splitList(v.GetString("assessment.unlimited_tiers")),
		ResultCacheTTL:            resultTTL,
		VerificationCacheTTL:      verificationTTL,
		SubmitRateLimit:           v.GetInt("rate_limit.submit_per_minute"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.CertificateStorage {
	case "local", "cloudinary":
	default:
		return Config{}, fmt.Errorf("unsupported certificate storage %q", cfg.CertificateStorage)
	}

	if cfg.DefaultAttemptLimit <= 0 {
		cfg.DefaultAttemptLimit = 2
	}

	if cfg.CertificateCodeRetries <= 0 {
		cfg.CertificateCodeRetries = 5
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToUpper(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
