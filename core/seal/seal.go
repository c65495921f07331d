// Package seal encrypts short secrets (OAuth access tokens) before they leave the server inside a session cookie.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	salt = []byte("semillerodigital.dashboard.core.seal")
	info = []byte("session access token")

	randReader io.Reader = rand.Reader // mockable

	// errors
	ErrInvalidSecret = errors.New("seal: secret key must not be empty")
	ErrInvalidSealed = errors.New("seal: invalid sealed value")
)

// Sealer seals & opens values with AES-256-GCM. The key is derived from the app secret with HKDF-SHA256.
type Sealer struct {
	aead cipher.AEAD
}

func New(secretKey string) (*Sealer, error) {
	if secretKey == "" {
		return nil, ErrInvalidSecret
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secretKey), salt, info), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns base64url(nonce|ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidSealed
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidSealed
	}
	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrInvalidSealed
	}
	return string(plaintext), nil
}
