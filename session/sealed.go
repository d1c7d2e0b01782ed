package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Ciphers accepted in Config.Cipher.
const (
	CipherAESGCM   = "aes-256-gcm"
	CipherChaCha20 = "chacha20-poly1305"
)

// ErrTokenSealed is returned when a stored token cannot be opened with the
// configured key.
var ErrTokenSealed = errors.New("session: token cannot be decrypted")

// SealedStore encrypts tokens before handing them to an inner Store, so the
// bbolt file or Redis key never holds a usable bearer token.
type SealedStore struct {
	inner Store
	aead  cipher.AEAD
}

// Seal wraps inner. The key is hashed with SHA-256 into a 256-bit cipher key.
func Seal(inner Store, key, cipherName string) (*SealedStore, error) {
	if key == "" {
		return nil, errors.New("session: empty encryption key")
	}
	sum := sha256.Sum256([]byte(key))

	var (
		aead cipher.AEAD
		err  error
	)
	switch cipherName {
	case "", CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(sum[:])
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(sum[:])
	default:
		return nil, fmt.Errorf("session: unsupported cipher %q", cipherName)
	}
	if err != nil {
		return nil, fmt.Errorf("session: init cipher: %w", err)
	}
	return &SealedStore{inner: inner, aead: aead}, nil
}

// Token implements Store.
func (s *SealedStore) Token(ctx context.Context) (string, error) {
	sealed, err := s.inner.Token(ctx)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenSealed, err)
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return "", ErrTokenSealed
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenSealed, err)
	}
	return string(plain), nil
}

// SetToken implements Store.
func (s *SealedStore) SetToken(ctx context.Context, token string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("session: generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(token), nil)
	return s.inner.SetToken(ctx, base64.StdEncoding.EncodeToString(sealed))
}

// Clear implements Store.
func (s *SealedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// Close closes the inner store when it holds resources.
func (s *SealedStore) Close() error {
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
