package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ShopName    string `env:"SHOP_NAME"`
	APIKey      string `env:"API_KEY"`
	APIPassword string `env:"API_PASSWORD"`

	ShopifyAPIKey     string `env:"SHOPIFY_API_KEY"`
	ShopifyAPISecret  string `env:"SHOPIFY_API_SECRET"`
	ShopifyScopes     string `env:"SHOPIFY_SCOPES" envDefault:"read_orders,write_orders" validate:"required"`
	ShopifyAPIVersion string `env:"SHOPIFY_API_VERSION" envDefault:"2024-10" validate:"required"`

	ForwardingAddress string `env:"FORWARDING_ADDRESS" validate:"omitempty,url"`
	FrontendAddress   string `env:"FRONTEND_ADDRESS" envDefault:"http://localhost:3000" validate:"required,url"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*" validate:"required"`

	FulfillTag      string `env:"FULFILL_TAG" envDefault:"Ready" validate:"required,excludesall=0x2C"`
	OrderDateSource string `env:"ORDER_DATE_SOURCE" envDefault:"created" validate:"oneof=created updated"`

	TokenStoreProvider    string `env:"TOKEN_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=TokenStoreProvider redis"`
	EncryptionKey         string `env:"ENCRYPTION_KEY" validate:"omitempty,len=32"`

	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"development"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	// LogFile, when set, receives a JSON copy of every log record.
	LogFile string `env:"LOG_FILE"`
	Port    string `env:"PORT" envDefault:"3060"`
}

var configValidator = validator.New()

// Load reads a .env file from the working directory when present, then
// parses the process environment. Variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// OAuthEnabled reports whether the Shopify OAuth install flow is configured.
func (c *Config) OAuthEnabled() bool {
	return strings.TrimSpace(c.ShopifyAPIKey) != "" && strings.TrimSpace(c.ShopifyAPISecret) != ""
}

// HasStaticCredentials reports whether a private-app credential pair is configured.
func (c *Config) HasStaticCredentials() bool {
	return strings.TrimSpace(c.ShopName) != "" && strings.TrimSpace(c.APIPassword) != ""
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasClientID := strings.TrimSpace(c.ShopifyAPIKey) != ""
	hasClientSecret := strings.TrimSpace(c.ShopifyAPISecret) != ""
	if hasClientID != hasClientSecret {
		return fmt.Errorf("SHOPIFY_API_KEY and SHOPIFY_API_SECRET must be set together")
	}

	forwarding := strings.TrimSpace(c.ForwardingAddress)
	if hasClientID && forwarding == "" {
		return fmt.Errorf("FORWARDING_ADDRESS is required when OAuth is enabled")
	}

	if forwarding != "" {
		parsed, err := url.Parse(forwarding)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("FORWARDING_ADDRESS must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("FORWARDING_ADDRESS must use https outside local development")
		}
	}

	if c.TokenStoreProvider == "redis" && c.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required when TOKEN_STORE_PROVIDER is redis")
	}

	if strings.TrimSpace(c.APIPassword) != "" && strings.TrimSpace(c.ShopName) == "" {
		return fmt.Errorf("SHOP_NAME is required when API_PASSWORD is set")
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
