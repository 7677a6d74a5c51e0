package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every setting read from the environment at startup
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret        []byte
	JWTExp           time.Duration
	IdentitySecret   string
	IdentityProofTTL time.Duration

	PaymentProvider      string
	StripeSecretKey      string
	PaymentCurrency      string
	PaymentWebhookSecret string
	ClientURL            string
	PublicURL            string

	MinEntryFee       decimal.Decimal
	PopularLimit      int
	AdminEmail        string
	ReconcileInterval time.Duration
	CORSOrigins       []string

	RateLimit RateLimitConfig
}

// Load reads the .env file if present, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "contesthub"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "contesthub"),
		PostgresDB:       getEnv("POSTGRES_DB", "contesthub"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 30*time.Second),

		JWTSecret:        []byte(getEnv("JWT_SECRET", "change-me")),
		JWTExp:           time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		IdentitySecret:   getEnv("IDENTITY_SECRET", ""),
		IdentityProofTTL: getEnvAsDuration("IDENTITY_PROOF_TTL", 5*time.Minute),

		PaymentProvider:      strings.ToLower(getEnv("PAYMENT_PROVIDER", "stub")),
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		PaymentCurrency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "bdt")),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", "change-me"),
		ClientURL:            strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),
		PublicURL:            strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),

		PopularLimit:      getEnvAsInt("POPULAR_LIMIT", 5),
		AdminEmail:        strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", 0),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),

		RateLimit: RateLimitConfig{
			Rate:  getEnvAsInt("RATE_LIMIT_RATE", DefaultRateLimitConfig.Rate),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", DefaultRateLimitConfig.Burst),
		},
	}

	minFee, err := decimal.NewFromString(getEnv("MIN_ENTRY_FEE", "100"))
	if err != nil {
		return nil, fmt.Errorf("MIN_ENTRY_FEE: %w", err)
	}
	cfg.MinEntryFee = minFee

	if cfg.PaymentProvider == "stripe" && cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
	}

	return cfg, nil
}

// PostgresDSN builds the gorm postgres DSN
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s TimeZone=UTC",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresDB, c.PostgresPassword, c.PostgresSSLMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
