package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	PublicBaseURL string

	// Auth: the identity provider issues HMAC-signed JWTs; this module
	// only validates them.
	AuthJWTSecret string

	CORSAllowedOrigins []string

	// Billing webhook (payment provider -> /webhooks/billing).
	BillingWebhookSecret string

	// Plan classification. A completed checkout for exactly
	// PremiumPriceCents maps to the premium plan; everything else maps
	// to professional.
	PremiumPriceCents     int64
	ProfessionalPlanLimit int
	FreePlanLimit         int
	SubscriptionPeriod    time.Duration

	// Notification dispatch (outbound automation endpoint).
	NotifyWebhookURL string
	NotifyTimeout    time.Duration

	// Public booking endpoint rate limiting.
	PublicRatePerSecond float64
	PublicRateBurst     int

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// SendGrid email notifications to professionals.
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		BillingWebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),

		PremiumPriceCents:     int64(getEnvAsInt("PREMIUM_PRICE_CENTS", 3790)),
		ProfessionalPlanLimit: getEnvAsInt("PROFESSIONAL_PLAN_LIMIT", 30),
		FreePlanLimit:         getEnvAsInt("FREE_PLAN_LIMIT", 5),
		SubscriptionPeriod:    getEnvAsDuration("SUBSCRIPTION_PERIOD", 30*24*time.Hour),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyTimeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),

		PublicRatePerSecond: getEnvAsFloat("PUBLIC_RATE_PER_SECOND", 5),
		PublicRateBurst:     getEnvAsInt("PUBLIC_RATE_BURST", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Reservo"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
