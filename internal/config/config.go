package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase (record store + blob store)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	DocumentsBucket    string

	// Payment gateway
	GatewayURL       string
	GatewayAPIKey    string
	GatewayReturnURL string

	// Pricing
	CapitalCity    string
	CapitalTariff  int
	InteriorTariff int

	// Public tracking rate limit
	TrackingMaxAttempts int
	TrackingWindow      time.Duration
	TrackingCooldown    time.Duration

	// JWT / Auth
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		DocumentsBucket:    getEnv("DOCUMENTS_BUCKET", "company-documents"),

		GatewayURL:       getEnv("PAYMENT_GATEWAY_URL", "https://sandbox-api.fedapay.com"),
		GatewayAPIKey:    getEnv("PAYMENT_GATEWAY_API_KEY", ""),
		GatewayReturnURL: getEnv("PAYMENT_RETURN_URL", "https://legalform.ci/payment/return"),

		CapitalCity:    getEnv("CAPITAL_CITY", "Abidjan"),
		CapitalTariff:  getEnvInt("CAPITAL_TARIFF", 180000),
		InteriorTariff: getEnvInt("INTERIOR_TARIFF", 150000),

		TrackingMaxAttempts: getEnvInt("TRACKING_MAX_ATTEMPTS", 5),
		TrackingWindow:      getEnvDuration("TRACKING_WINDOW", 15*time.Minute),
		TrackingCooldown:    getEnvDuration("TRACKING_COOLDOWN", 30*time.Minute),

		JWTSecret:     getEnv("JWT_SECRET", "legalform-default-dev-secret-change-me"),
		JWTAccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
