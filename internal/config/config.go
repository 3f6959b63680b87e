package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DriverPostgres stores documents in Postgres (JSONB).
	DriverPostgres = "postgres"
	// DriverRedis stores documents in Redis.
	DriverRedis = "redis"
)

type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	RedisURL         string
	DocstoreDriver   string
	JWTSecret        string
	IDTokenTTL       time.Duration
	ExchangeTokenTTL time.Duration
	VerifyLinkTTL    time.Duration
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	AppBaseURL       string
	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	AsynqQueue       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	idTokenTTL, err := durationEnv("ID_TOKEN_TTL", "1h")
	if err != nil {
		return nil, err
	}
	exchangeTokenTTL, err := durationEnv("EXCHANGE_TOKEN_TTL", "5m")
	if err != nil {
		return nil, err
	}
	verifyLinkTTL, err := durationEnv("VERIFY_LINK_TTL", "24h")
	if err != nil {
		return nil, err
	}
	smtpPort, err := intEnv("SMTP_PORT", "587")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		DocstoreDriver:   strings.ToLower(getEnv("DOCSTORE_DRIVER", DriverPostgres)),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		IDTokenTTL:       idTokenTTL,
		ExchangeTokenTTL: exchangeTokenTTL,
		VerifyLinkTTL:    verifyLinkTTL,
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         smtpPort,
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Accountd"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DocstoreDriver != DriverPostgres && cfg.DocstoreDriver != DriverRedis {
		return nil, fmt.Errorf("DOCSTORE_DRIVER must be %q or %q", DriverPostgres, DriverRedis)
	}
	if cfg.DocstoreDriver == DriverRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when DOCSTORE_DRIVER is redis")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func durationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func intEnv(key, fallback string) (int, error) {
	raw := getEnv(key, fallback)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return n, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
