package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"

	"github.com/gitshopapp/orderrelay/internal/config"
	"github.com/gitshopapp/orderrelay/internal/credentials"
	"github.com/gitshopapp/orderrelay/internal/handlers"
	"github.com/gitshopapp/orderrelay/internal/logging"
	"github.com/gitshopapp/orderrelay/internal/observability"
	"github.com/gitshopapp/orderrelay/internal/services"
	"github.com/gitshopapp/orderrelay/internal/shopify"
)

const shopifyHTTPTimeout = 15 * time.Second

type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	TokenStore credentials.Store
	Registry   *credentials.Registry
	Handlers   *handlers.Handlers

	logFile       io.Closer
	sentryEnabled bool
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var sentryErr error
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		sentryErr = sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		})
		sentryEnabled = sentryErr == nil
	}

	logger, logFile, err := newLogger(cfg, os.Stdout, sentryEnabled)
	if err != nil {
		return nil, err
	}
	if sentryErr != nil {
		logger.Warn("failed to initialize sentry", "error", sentryErr)
	}
	a := &App{Config: cfg, Logger: logger, logFile: logFile, sentryEnabled: sentryEnabled}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	tokenStore, err := credentials.NewStore(startupCtx, credentials.Config{
		Provider:              cfg.TokenStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
		EncryptionKey:         cfg.EncryptionKey,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}
	a.TokenStore = tokenStore

	httpClient := observability.NewHTTPClient(shopifyHTTPTimeout)
	clientLogger := logger.With("component", "shopify_client")
	newClient := func(shop, accessToken string) (*shopify.Client, error) {
		return shopify.NewClient(shop, accessToken, cfg.ShopifyAPIVersion, httpClient, clientLogger)
	}

	registry, err := credentials.NewRegistry(tokenStore, newClient, credentials.StaticCredentials{
		Shop:        cfg.ShopName,
		AccessToken: cfg.APIPassword,
	}, logger.With("component", "credentials"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize credentials registry: %w", err)
	}
	a.Registry = registry

	var installer handlers.Installer
	if cfg.OAuthEnabled() {
		authService, err := services.NewAuthService(&shopify.OAuth{
			ClientID:     cfg.ShopifyAPIKey,
			ClientSecret: cfg.ShopifyAPISecret,
			Scopes:       cfg.ShopifyScopes,
			RedirectURL:  shopify.CallbackURL(cfg.ForwardingAddress),
			HTTPClient:   httpClient,
		}, registry, logger.With("component", "auth_service"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize auth service: %w", err)
		}
		installer = authService
	} else {
		logger.Info("shopify oauth disabled; install routes will answer 503")
	}

	orderService, err := services.NewOrderService(registry, cfg.OrderDateSource, logger.With("component", "order_service"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize order service: %w", err)
	}
	fulfillmentService, err := services.NewFulfillmentService(registry, cfg.FulfillTag, logger.With("component", "fulfillment_service"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize fulfillment service: %w", err)
	}

	h, err := handlers.New(handlers.Dependencies{
		Config:             cfg,
		AuthService:        installer,
		OrderService:       orderService,
		FulfillmentService: fulfillmentService,
		ClientStatus:       registry,
		Logger:             logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}
	a.Handlers = h

	if cfg.HasStaticCredentials() {
		logger.Info("static shopify credentials configured", "shop", shopify.NormalizeShopDomain(cfg.ShopName))
	}

	return a, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.TokenStore != nil {
		if err := a.TokenStore.Close(); err != nil && a.Logger != nil {
			a.Logger.Warn("failed to close token store", "error", err)
		}
	}
	if a.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
	if a.logFile != nil {
		_ = a.logFile.Close() //nolint
	}
}

// newLogger builds the console handler for LOG_FORMAT and fans records out
// to a JSON file when LOG_FILE is set and to Sentry when it is enabled.
func newLogger(cfg *config.Config, console io.Writer, withSentry bool) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var consoleHandler slog.Handler
	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		consoleHandler = slog.NewJSONHandler(console, opts)
	default:
		consoleHandler = tint.NewHandler(console, &tint.Options{
			Level: cfg.LogLevel,
		})
	}
	sinks := []slog.Handler{consoleHandler}

	var file *os.File
	if path := strings.TrimSpace(cfg.LogFile); path != "" {
		var err error
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sinks = append(sinks, slog.NewJSONHandler(file, opts))
	}

	if withSentry {
		sinks = append(sinks, sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelError},
		}.NewSentryHandler(context.Background()))
	}

	if len(sinks) == 1 {
		return slog.New(consoleHandler), nil, nil
	}
	logger := slog.New(logging.MultiHandler(sinks...))
	if file == nil {
		return logger, nil, nil
	}
	return logger, file, nil
}
