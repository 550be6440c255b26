package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Random byte lengths of the broker's single-use tokens. Hex encoding
// doubles them on the wire.
const (
	StateTokenBytes    = 32
	TransferTokenBytes = 24
	AnonymousIDBytes   = 32
	NonceBytes         = 16
)

// TokenGenerator draws opaque tokens. Tokens that must survive a cache dump
// are stored under Hash, never in plain form.
type TokenGenerator interface {
	Random(nBytes int) (string, error)
	Generate(nBytes int) (plain, digest string, err error)
	Hash(plain string) string
}

type cryptoGenerator struct{}

func NewTokenGenerator() TokenGenerator {
	return cryptoGenerator{}
}

func (cryptoGenerator) Random(nBytes int) (string, error) {
	if nBytes <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", nBytes)
	}
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (g cryptoGenerator) Generate(nBytes int) (string, string, error) {
	plain, err := g.Random(nBytes)
	if err != nil {
		return "", "", err
	}
	return plain, g.Hash(plain), nil
}

func (cryptoGenerator) Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
