package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Port            string        `envconfig:"PORT" default:"8080"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	// Remote product catalog (fakestoreapi compatible)
	CatalogURL string `envconfig:"CATALOG_URL" default:"https://fakestoreapi.com"`

	PageSize                int `envconfig:"PAGE_SIZE" default:"10"`
	MaxHydrationConcurrency int `envconfig:"MAX_HYDRATION_CONCURRENCY" default:"8"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	CookieSecure     bool     `envconfig:"COOKIE_SECURE" default:"false"`

	// Optional infrastructure; empty disables the component.
	RedisURL        string        `envconfig:"REDIS_URL"`
	ProductCacheTTL time.Duration `envconfig:"PRODUCT_CACHE_TTL" default:"5m"`
	RabbitMQURL     string        `envconfig:"RABBITMQ_URL"`
	OTLPEndpoint    string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Terminal client
	CartFile         string        `envconfig:"CART_FILE" default:".storefront/cart.json"`
	ViewportRows     int           `envconfig:"VIEWPORT_ROWS" default:"6"`
	ViewportMargin   int           `envconfig:"VIEWPORT_MARGIN" default:"1"`
	CartPollInterval time.Duration `envconfig:"CART_POLL_INTERVAL" default:"500ms"`
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.CORSAllowOrigins = cleanOrigins(cfg.CORSAllowOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c Config) validate() error {
	if strings.TrimSpace(c.CatalogURL) == "" {
		return fmt.Errorf("CATALOG_URL must not be empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.MaxHydrationConcurrency <= 0 {
		return fmt.Errorf("MAX_HYDRATION_CONCURRENCY must be positive, got %d", c.MaxHydrationConcurrency)
	}
	if c.ViewportRows <= 0 {
		return fmt.Errorf("VIEWPORT_ROWS must be positive, got %d", c.ViewportRows)
	}
	if c.ViewportMargin < 0 {
		return fmt.Errorf("VIEWPORT_MARGIN must not be negative, got %d", c.ViewportMargin)
	}
	return nil
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
