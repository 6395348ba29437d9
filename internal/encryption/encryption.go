// Package encryption seals sensitive case text at rest with
// XChaCha20-Poly1305.
package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidKey   = errors.New("encryption key must be 32 bytes, base64 encoded")
	ErrInvalidToken = errors.New("invalid encrypted token")
)

// Service encrypts strings into URL-safe tokens. The zero value is unusable;
// build one with NewService.
type Service struct {
	aead cipher.AEAD
}

// NewService parses a base64 (standard or URL alphabet) 32-byte key.
func NewService(key string) (*Service, error) {
	raw, err := decodeKey(strings.TrimSpace(key))
	if err != nil || len(raw) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Service{aead: aead}, nil
}

func decodeKey(key string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if raw, err := enc.DecodeString(key); err == nil {
			return raw, nil
		}
	}
	return nil, ErrInvalidKey
}

// GenerateKey returns a fresh random key in the format NewService expects.
func GenerateKey() (string, error) {
	raw := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// Encrypt returns base64url(nonce || ciphertext). The empty string maps to
// the empty string.
func (s *Service) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. The empty string maps to the empty string.
func (s *Service) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(sealed) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrInvalidToken
	}
	nonce, ct := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plain), nil
}
