package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	RedisURL    string

	SessionSecret string
	EncryptionKey string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	LogLevel  string
	LogFormat string

	// Cron expression for the periodic CRM score sync and the timezone it
	// is evaluated in.
	SyncSchedule string
	SyncTimezone string

	CRMFeedURL    string
	CRMFeedSecret string
	CRMStubMode   bool

	SendgridAPIKey string
	MailFrom       string
	MailStubMode   bool

	SeedDevData bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present (local development).
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	cfg := &Config{
		Env:  getEnvWithDefault("ENV", "development"),
		Port: getEnvWithDefault("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		SyncSchedule: getEnvWithDefault("SYNC_SCHEDULE", "0 * * * *"),
		SyncTimezone: getEnvWithDefault("SYNC_TIMEZONE", "UTC"),

		CRMFeedURL:    os.Getenv("CRM_FEED_URL"),
		CRMFeedSecret: os.Getenv("CRM_FEED_SECRET"),
		CRMStubMode:   os.Getenv("CRM_STUB_MODE") == "true",

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnvWithDefault("MAIL_FROM", "dashboard@repdash.local"),
		MailStubMode:   os.Getenv("MAIL_STUB_MODE") == "true",

		SeedDevData: os.Getenv("SEED_DEV_DATA") == "true",
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		log.Println("WARNING: Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
