package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/gitshopapp/orderrelay/internal/shopify"
)

var ErrNoActiveClient = errors.New("no shopify client is active")

// ClientFactory builds an authenticated client for a shop.
type ClientFactory func(shop, accessToken string) (*shopify.Client, error)

// StaticCredentials is the private-app credential pair from configuration.
type StaticCredentials struct {
	Shop        string
	AccessToken string
}

// Registry is the process-wide cell holding the active Shopify client.
//
// Activate replaces the cell unconditionally; the last completed install
// wins. Current returns the active client or, when the cell is empty,
// builds one from a token stored for the configured shop or from the
// static credentials, in that order.
type Registry struct {
	mu        sync.RWMutex
	current   *shopify.Client
	store     Store
	newClient ClientFactory
	static    StaticCredentials
	logger    *slog.Logger
}

func NewRegistry(store Store, newClient ClientFactory, static StaticCredentials, logger *slog.Logger) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("credentials registry store is required")
	}
	if newClient == nil {
		return nil, fmt.Errorf("credentials registry client factory is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	static.Shop = shopify.NormalizeShopDomain(static.Shop)
	static.AccessToken = strings.TrimSpace(static.AccessToken)

	return &Registry{
		store:     store,
		newClient: newClient,
		static:    static,
		logger:    logger,
	}, nil
}

// Activate builds a client for shop, persists its token and makes it current.
// A persistence failure is logged; the client is still activated.
func (r *Registry) Activate(ctx context.Context, shop, accessToken string) (*shopify.Client, error) {
	client, err := r.newClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	if err := r.store.Set(ctx, client.Shop(), accessToken); err != nil {
		r.logger.Warn("failed to persist access token", "shop", client.Shop(), "error", err)
	}

	r.mu.Lock()
	r.current = client
	r.mu.Unlock()

	r.logger.Info("shopify client activated", "shop", client.Shop())
	return client, nil
}

// Current returns the active client, creating it lazily when unset.
func (r *Registry) Current(ctx context.Context) (*shopify.Client, error) {
	r.mu.RLock()
	client := r.current
	r.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	client, err := r.restore(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// An install may have completed while we were restoring.
	if r.current != nil {
		return r.current, nil
	}
	r.current = client
	return client, nil
}

// Active reports the shop of the current client without creating one.
func (r *Registry) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return "", false
	}
	return r.current.Shop(), true
}

func (r *Registry) restore(ctx context.Context) (*shopify.Client, error) {
	if r.static.Shop == "" {
		return nil, ErrNoActiveClient
	}

	token, err := r.store.Get(ctx, r.static.Shop)
	switch {
	case err == nil:
		return r.newClient(r.static.Shop, token)
	case !errors.Is(err, ErrNotFound):
		r.logger.Warn("failed to load stored access token", "shop", r.static.Shop, "error", err)
	}

	if r.static.AccessToken == "" {
		return nil, ErrNoActiveClient
	}
	return r.newClient(r.static.Shop, r.static.AccessToken)
}
