// Package keys handles generation, parsing, and validation of the
// ed25519 key material used as owner identities.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// KeyPair holds a base64-encoded ed25519 key pair
type KeyPair struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Generate creates a new random key pair
func Generate() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &KeyPair{
		PublicKey:  EncodeToB64String(pub),
		PrivateKey: EncodeToB64String(priv),
	}, nil
}

// ParsePrivateKeyB64 decodes and validates a base64-encoded private key
func ParsePrivateKeyB64(privateKeyB64 string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid base64: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return ed25519.PrivateKey(raw), nil
}

// ParsePublicKeyB64 decodes and validates a base64-encoded public key
func ParsePublicKeyB64(publicKeyB64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("public key is not valid base64: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// ValidatePublicKey reports whether the string is a well-formed public key
func ValidatePublicKey(publicKeyB64 string) bool {
	_, err := ParsePublicKeyB64(publicKeyB64)
	return err == nil
}

// PublicKeyFromPrivate derives the encoded public key from a private key
func PublicKeyFromPrivate(priv ed25519.PrivateKey) string {
	return EncodeToB64String(priv.Public().(ed25519.PublicKey))
}

// EncodeToB64String encodes raw key or signature bytes as base64
func EncodeToB64String(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeStringB64 decodes a base64 string back to raw bytes
func DecodeStringB64(stringB64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(stringB64)
}
