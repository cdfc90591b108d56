package apikeycodec

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Codec encrypts and decrypts partner API key strings for storage. Ciphertexts
// are self-contained: nonce || sealed-box, base64-encoded.
type Codec struct {
	aead cipher.AEAD
}

// New builds a Codec from a 32-byte key, typically loaded from an
// environment variable at startup (never hard-coded or committed).
func New(key []byte) (*Codec, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("apikeycodec: invalid key: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext and returns a base64-encoded ciphertext suitable
// for storing in the api_key column.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("apikeycodec: generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. An empty input decrypts to an empty string,
// matching the source converter's null-passthrough behavior.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("apikeycodec: decode base64: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("apikeycodec: ciphertext too short")
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("apikeycodec: decrypt: %w", err)
	}
	return string(plaintext), nil
}
