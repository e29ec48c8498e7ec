// Package crypto encrypts session tokens at rest. The general-purpose store
// keeps the user record in the clear; token columns go through a Cipher so a
// copied database file does not leak credentials.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

type Cipher interface {
	Seal(plaintext string) (string, error)
	Open(ciphertext string) (string, error)
}

// Noop passes values through unchanged. Used when no encryption key is
// configured, collapsing the secure store into the general-purpose one.
type Noop struct{}

func (Noop) Seal(plaintext string) (string, error)  { return plaintext, nil }
func (Noop) Open(ciphertext string) (string, error) { return ciphertext, nil }

// AesGcm encrypts values with AES-256-GCM. Output is base64(nonce || ciphertext || tag).
type AesGcm struct {
	aead cipher.AEAD
}

// NewAesGcm builds a cipher from a 64-character hex key (32 bytes).
func NewAesGcm(hexKey string) (*AesGcm, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AesGcm{aead: aead}, nil
}

func (c *AesGcm) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AesGcm) Open(ciphertext string) (string, error) {
	buffer, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(buffer) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := buffer[:nonceSize], buffer[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plain), nil
}
