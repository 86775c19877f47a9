// Package crypto seals Shopify access tokens before they leave the process.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	ErrMissingKey         = errors.New("encryption key is required")
	ErrInvalidKey         = errors.New("encryption key must be 32 bytes for AES-256")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// TokenCipher encrypts a token bound to the shop it belongs to. A sealed
// value only opens with the same shop domain.
type TokenCipher interface {
	Seal(shop, token string) (string, error)
	Open(shop, sealed string) (string, error)
}

type aesGCMCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher creates an AES-256-GCM cipher from a 32-byte key.
func NewTokenCipher(key string) (TokenCipher, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aesGCMCipher{aead: aead}, nil
}

func (c *aesGCMCipher) Seal(shop, token string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(token), []byte(shop))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *aesGCMCipher) Open(shop, sealed string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed token: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	token, err := c.aead.Open(nil, nonce, ciphertext, []byte(shop))
	if err != nil {
		return "", fmt.Errorf("failed to open sealed token: %w", err)
	}

	return string(token), nil
}
