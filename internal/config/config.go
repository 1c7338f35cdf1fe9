package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Record store (Airtable-compatible REST API)
	AirtableKey                string
	AirtableBaseID             string
	AirtableGoalsTable         string
	AirtableConfirmationsTable string
	AirtableTimeout            time.Duration

	// Payment
	PaymentProvider      string // currently only "stripe"
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Audit ledger database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Settlement
	SweepGracePeriod           time.Duration
	SweepConfirmationsInterval time.Duration
	SweepDeadlinesInterval     time.Duration
	SweepSchedulerEnabled      bool
	MaxStakeUSD                float64

	// Operator API
	AdminToken string

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "StakePact"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envString("APP_URL", "http://localhost:8090"),
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@example.com"),

		// Record store
		AirtableKey:                envRequired("AIRTABLE_KEY"),
		AirtableBaseID:             envRequired("AIRTABLE_BASE_ID"),
		AirtableGoalsTable:         envString("AIRTABLE_GOALS_TABLE", "Goals"),
		AirtableConfirmationsTable: envString("AIRTABLE_CONFIRMATIONS_TABLE", "Goal Confirmations"),
		AirtableTimeout:            envDuration("AIRTABLE_TIMEOUT", 15*time.Second),

		// Payment
		PaymentProvider:      envString("PAYMENT_PROVIDER", "stripe"),
		StripeSecretKey:      envRequired("STRIPE_SECRET_KEY"),
		StripePublishableKey: envString("STRIPE_PUBLISHABLE_KEY", ""),
		StripeWebhookSecret:  envString("STRIPE_WEBHOOK_SECRET", ""),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Audit ledger database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/stakepact.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Settlement
		SweepGracePeriod:           envDuration("SWEEP_GRACE_PERIOD", 96*time.Hour), // 4 days past deadline
		SweepConfirmationsInterval: envDuration("SWEEP_CONFIRMATIONS_INTERVAL", 24*time.Hour),
		SweepDeadlinesInterval:     envDuration("SWEEP_DEADLINES_INTERVAL", 24*time.Hour),
		SweepSchedulerEnabled:      envBool("SWEEP_SCHEDULER_ENABLED", true),
		MaxStakeUSD:                envFloat("MAX_STAKE_USD", 1000),

		// Operator API
		AdminToken: envString("ADMIN_TOKEN", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production
// deployments. Development allows email to fall back to log mode and leaves the
// operator endpoints open for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.AdminToken == "" {
		slog.Error("production deployment requires ADMIN_TOKEN",
			"hint", "operator sweep endpoints must not be open in production")
		os.Exit(1)
	}
	if cfg.StripeWebhookSecret == "" {
		slog.Error("production deployment requires STRIPE_WEBHOOK_SECRET")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
