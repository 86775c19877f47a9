package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gitshopapp/orderrelay/internal/credentials"
	"github.com/gitshopapp/orderrelay/internal/shopify"
)

var (
	ErrAuthUnavailable   = errors.New("auth service unavailable")
	ErrMissingParameter  = errors.New("missing required parameter")
	ErrInvalidShop       = errors.New("invalid shop domain")
	ErrStateMismatch     = errors.New("oauth state mismatch")
	ErrHMACInvalid       = errors.New("oauth hmac validation failed")
	ErrTokenExchange     = errors.New("failed to exchange oauth code")
	ErrAuthGenerateState = errors.New("failed to generate oauth state")
	ErrActivateClient    = errors.New("failed to activate shopify client")
)

type StartInstallResult struct {
	Shop             string
	State            string
	AuthorizationURL string
}

type CompleteInstallInput struct {
	// Query is the full callback query, needed verbatim for HMAC verification.
	Query       url.Values
	StoredState string
}

type AuthService struct {
	oauth     *shopify.OAuth
	apiSecret string
	registry  *credentials.Registry
	logger    *slog.Logger
}

func NewAuthService(oauth *shopify.OAuth, registry *credentials.Registry, logger *slog.Logger) (*AuthService, error) {
	if oauth == nil {
		return nil, fmt.Errorf("auth service oauth config is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("auth service credentials registry is required")
	}

	return &AuthService{
		oauth:     oauth,
		apiSecret: oauth.ClientSecret,
		registry:  registry,
		logger:    logger,
	}, nil
}

func (s *AuthService) StartInstall(shop string) (StartInstallResult, error) {
	result := StartInstallResult{}
	if s == nil || s.oauth == nil {
		return result, ErrAuthUnavailable
	}

	shop = shopify.NormalizeShopDomain(shop)
	if shop == "" {
		return result, fmt.Errorf("%w: shop", ErrMissingParameter)
	}
	if !shopify.ValidShopDomain(shop) {
		return result, ErrInvalidShop
	}

	state, err := generateOAuthState()
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrAuthGenerateState, err)
	}

	authURL, err := s.oauth.AuthorizationURL(shop, state)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}

	result.Shop = shop
	result.State = state
	result.AuthorizationURL = authURL
	return result, nil
}

// CompleteInstall runs the callback gates in order: required parameters,
// state, HMAC, then code exchange. Any failure ends the flow.
func (s *AuthService) CompleteInstall(ctx context.Context, input CompleteInstallInput) (string, error) {
	if s == nil || s.oauth == nil || s.registry == nil {
		return "", ErrAuthUnavailable
	}

	query := input.Query
	shop := shopify.NormalizeShopDomain(query.Get("shop"))
	hmacParam := strings.TrimSpace(query.Get("hmac"))
	code := strings.TrimSpace(query.Get("code"))

	var missing []string
	if shop == "" {
		missing = append(missing, "shop")
	}
	if hmacParam == "" {
		missing = append(missing, "hmac")
	}
	if code == "" {
		missing = append(missing, "code")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}

	state := query.Get("state")
	if input.StoredState == "" || state != input.StoredState {
		return "", ErrStateMismatch
	}

	if err := shopify.VerifyHMAC(query, s.apiSecret); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHMACInvalid, err)
	}

	if !shopify.ValidShopDomain(shop) {
		return "", ErrInvalidShop
	}

	accessToken, err := s.oauth.ExchangeCode(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	client, err := s.registry.Activate(ctx, shop, accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrActivateClient, err)
	}

	if s.logger != nil {
		s.logger.Info("shop installed", "shop", client.Shop())
	}
	return client.Shop(), nil
}

func generateOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
