// Package credentials keeps Shopify access tokens and the client that is
// currently active for the relay.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitshopapp/orderrelay/internal/crypto"
)

var ErrNotFound = errors.New("access token not found")

// Store persists access tokens keyed by shop domain.
type Store interface {
	Get(ctx context.Context, shop string) (string, error)
	Set(ctx context.Context, shop, token string) error
	Delete(ctx context.Context, shop string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
	EncryptionKey         string
}

// NewStore builds the configured store. When an encryption key is set,
// tokens are sealed before they reach the backing store.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	var store Store
	switch cfg.Provider {
	case "", "memory":
		memory, err := NewMemoryStore()
		if err != nil {
			return nil, err
		}
		store = memory
	case "redis":
		redisStore, err := NewRedisStore(ctx, cfg.RedisConnectionString)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, fmt.Errorf("unsupported token store provider: %s", cfg.Provider)
	}

	if cfg.EncryptionKey == "" {
		return store, nil
	}

	tokenCipher, err := crypto.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		_ = store.Close() //nolint
		return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
	}
	return &sealedStore{Store: store, cipher: tokenCipher}, nil
}

type sealedStore struct {
	Store
	cipher crypto.TokenCipher
}

func (s *sealedStore) Get(ctx context.Context, shop string) (string, error) {
	sealed, err := s.Store.Get(ctx, shop)
	if err != nil {
		return "", err
	}
	return s.cipher.Open(shop, sealed)
}

func (s *sealedStore) Set(ctx context.Context, shop, token string) error {
	sealed, err := s.cipher.Seal(shop, token)
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, shop, sealed)
}

func tokenKey(shop string) string {
	return "token:" + shop
}
