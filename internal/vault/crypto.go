// Package vault provides AES-GCM sealing for client-side encrypted documents
// and self-signed TLS certificates for the development server.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length (AES-256).
const KeySize = 32

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes long.
	ErrInvalidKey = errors.New("vault: key must be 32 bytes")
	// ErrOpenFailed is returned when ciphertext cannot be authenticated with the key.
	ErrOpenFailed = errors.New("vault: decryption failed (wrong key or tampered data)")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext and returns the nonce-prefixed ciphertext as hex.
func Seal(plaintext, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

// Open reverses Seal.
func Open(sealed string, key []byte) ([]byte, error) {
	ciphertext, err := hex.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("vault: decode ciphertext: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("vault: ciphertext too short")
	}

	nonce, body := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}
