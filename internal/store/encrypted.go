package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var ErrDecrypt = errors.New("store: cannot decrypt value")

const keyInfo = "healthtrack store v1"

// Encrypted seals every value with XChaCha20-Poly1305 before handing it to
// the wrapped store. The entry key is bound as additional data, so a value
// copied under another key fails to open.
type Encrypted struct {
	inner Store
	aead  cipher.AEAD
}

// NewEncrypted derives a 256-bit key from secret with HKDF-SHA256.
func NewEncrypted(inner Store, secret string) (*Encrypted, error) {
	if secret == "" {
		return nil, errors.New("store: encryption secret is empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive store key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Encrypted{inner: inner, aead: aead}, nil
}

func (e *Encrypted) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := e.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(sealed) < e.aead.NonceSize() {
		return "", false, fmt.Errorf("%w: %s", ErrDecrypt, key)
	}
	nonce, ciphertext := sealed[:e.aead.NonceSize()], sealed[e.aead.NonceSize():]
	plain, err := e.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", ErrDecrypt, key)
	}
	return string(plain), true, nil
}

func (e *Encrypted) Put(ctx context.Context, key, value string) error {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(value)+e.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return e.inner.Put(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}
