package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server reads from the environment.
type Config struct {
	// Server
	Port    string
	BaseURL string

	// MongoDB
	MongoURI string
	DBName   string

	// JWT
	JWTSecret string
	JWTTTL    time.Duration

	// Email (magic-link delivery)
	ResendAPIKey string
	FromEmail    string

	// Google OAuth (optional — calendar-linked sign-in)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Voice calls (Vapi)
	VapiAPIKey      string
	VapiAssistantID string

	// Fallback zone for profiles written before the timezone field existed.
	DefaultTimezone string

	// Analytics — "posthog", "kafka" or "" (log only)
	AnalyticsBackend string
	PostHogAPIKey    string
	PostHogHost      string
	KafkaBroker      string
	KafkaTopic       string

	// Tracing
	OTLPEndpoint   string
	OTLPInsecure   bool
	ServiceName    string
	ServiceVersion string
}

// Load reads configuration from environment variables and validates the
// required ones.
func Load() (*Config, error) {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		BaseURL: getEnv("BASE_URL", ""),

		MongoURI: getEnv("MONGODB_URI", ""),
		DBName:   getEnv("DB_NAME", "adulting"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 30*24*time.Hour),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),

		VapiAPIKey:      getEnv("VAPI_API_KEY", ""),
		VapiAssistantID: getEnv("VAPI_ASSISTANT_ID", ""),

		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "America/Los_Angeles"),

		AnalyticsBackend: getEnv("ANALYTICS_BACKEND", ""),
		PostHogAPIKey:    getEnv("POSTHOG_API_KEY", ""),
		PostHogHost:      getEnv("POSTHOG_HOST", "https://us.i.posthog.com"),
		KafkaBroker:      getEnv("KAFKA_BROKER", ""),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "adulting.events"),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "adulting-backend"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// HasGoogleOAuth returns true if Google sign-in is configured.
func (c *Config) HasGoogleOAuth() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
