package credentials

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoryStoreSize = 1_000

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	tokens *lru.Cache[string, string]
}

func NewMemoryStore() (*MemoryStore, error) {
	c, err := lru.New[string, string](defaultMemoryStoreSize)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{tokens: c}, nil
}

func (m *MemoryStore) Get(_ context.Context, shop string) (string, error) {
	token, ok := m.tokens.Get(tokenKey(shop))
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (m *MemoryStore) Set(_ context.Context, shop, token string) error {
	m.tokens.Add(tokenKey(shop), token)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, shop string) error {
	m.tokens.Remove(tokenKey(shop))
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
