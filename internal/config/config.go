package config

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"boozstudio/internal/modules/pricing"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv   string `env:"APP_ENV, default=dev"`
	Port     string `env:"PORT, default=8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	DatabaseURL    string `env:"DATABASE_URL, default=file:booz.db?_pragma=busy_timeout(5000)&_time_format=sqlite"`
	StudioTimezone string `env:"STUDIO_TIMEZONE, default=America/Mexico_City"`
	CreditMode     string `env:"CREDIT_BOOKING_MODE, default=covered"`

	JWTSecret    string        `env:"JWT_SECRET, default=change-me-jwt-secret"`
	JWTAccessTTL time.Duration `env:"JWT_ACCESS_TTL, default=24h"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	// Requests per second and burst allowed per client IP on booking routes.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS, default=5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST, default=10"`

	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
}

type RedisConfig struct {
	// Empty disables idempotency-key handling.
	Addr           string        `env:"REDIS_ADDR"`
	DB             int           `env:"REDIS_DB, default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type RabbitMQConfig struct {
	// Empty disables event publishing.
	URL         string `env:"RABBITMQ_URL"`
	QueuePrefix string `env:"RABBITMQ_QUEUE_PREFIX, default=booz"`
}

// Load reads .env when present and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))

	if c.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if _, err := time.LoadLocation(c.StudioTimezone); err != nil {
		return fmt.Errorf("invalid STUDIO_TIMEZONE %q: %w", c.StudioTimezone, err)
	}
	if _, err := pricing.ParseCreditMode(c.CreditMode); err != nil {
		return fmt.Errorf("invalid CREDIT_BOOKING_MODE: %w", err)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}

	if c.IsProdLike() {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if !strings.HasPrefix(c.DatabaseURL, "postgres") {
			return fmt.Errorf("in prod/release DATABASE_URL must point to PostgreSQL")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudioTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Pricing() *pricing.Policy {
	p := pricing.Default()
	if m, err := pricing.ParseCreditMode(c.CreditMode); err == nil {
		p.CreditMode = m
	}
	return p
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
