package config

import (
	"log/slog"
	"strings"
	"testing"
)

func TestValidateEncryptionKeyLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		encryptionKey string
		wantErr       bool
	}{
		{
			name:          "valid 32-byte key",
			encryptionKey: strings.Repeat("k", 32),
			wantErr:       false,
		},
		{
			name:          "invalid short key",
			encryptionKey: "short",
			wantErr:       true,
		},
		{
			name:          "empty key with memory store",
			encryptionKey: "",
			wantErr:       false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.EncryptionKey = tt.encryptionKey

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateTokenStoreProvider(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.TokenStoreProvider = "invalid"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "TokenStoreProvider") || !strings.Contains(err.Error(), "oneof") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRedisTokenStoreRequiresEncryptionKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.TokenStoreProvider = "redis"
	cfg.EncryptionKey = ""

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "ENCRYPTION_KEY is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRedisConnectionStringForTokenStore(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.TokenStoreProvider = "redis"
	cfg.EncryptionKey = strings.Repeat("k", 32)
	cfg.RedisConnectionString = ""

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "RedisConnectionString") || !strings.Contains(err.Error(), "required_if") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateOAuthCredentialsMustBePaired(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ShopifyAPIKey = "client_id"
	cfg.ShopifyAPISecret = ""

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "SHOPIFY_API_KEY and SHOPIFY_API_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForwardingAddressRequiredForOAuth(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ShopifyAPIKey = "client_id"
	cfg.ShopifyAPISecret = "client_secret"
	cfg.ForwardingAddress = ""

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "FORWARDING_ADDRESS is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForwardingAddressRequiresHTTPSOutsideLocalhost(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ForwardingAddress = "http://example.com"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "FORWARDING_ADDRESS must use https") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForwardingAddressAllowsLocalhostHTTP(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ForwardingAddress = "http://localhost:3060"

	if err := cfg.validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateFulfillTagRejectsComma(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.FulfillTag = "Ready,Packed"

	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidateOrderDateSource(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.OrderDateSource = "processed"

	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidatePasswordRequiresShopName(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ShopName = ""

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "SHOP_NAME is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		ShopName:              "example.myshopify.com",
		APIPassword:           "shpat_123",
		ShopifyScopes:         "read_orders,write_orders",
		ShopifyAPIVersion:     "2024-10",
		FrontendAddress:       "http://localhost:3000",
		CORSAllowedOrigin:     "*",
		FulfillTag:            "Ready",
		OrderDateSource:       "created",
		TokenStoreProvider:    "memory",
		RedisConnectionString: "redis://localhost:6379/0",
		LogFormat:             "text",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "INFO")

	// Ensure unrelated env vars from host don't affect this test.
	t.Setenv("SHOP_NAME", "")
	t.Setenv("API_PASSWORD", "")
	t.Setenv("SHOPIFY_API_KEY", "")
	t.Setenv("SHOPIFY_API_SECRET", "")
	t.Setenv("TOKEN_STORE_PROVIDER", "")
	t.Setenv("ENCRYPTION_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected INFO level, got %v", cfg.LogLevel)
	}
	if cfg.FulfillTag != "Ready" {
		t.Fatalf("expected default fulfill tag, got %q", cfg.FulfillTag)
	}
	if cfg.OAuthEnabled() {
		t.Fatalf("expected oauth disabled without client credentials")
	}
}
