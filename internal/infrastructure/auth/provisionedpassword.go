package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const provisionedSecretBytes = 24

// ProvisionedPasswords fills the password column of accounts created by a
// first LINE login. The plaintext is discarded, so the account signs in
// through LINE until its owner resets the password on the site.
type ProvisionedPasswords struct {
	cost int
}

func NewProvisionedPasswords(cost int) *ProvisionedPasswords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &ProvisionedPasswords{cost: cost}
}

func (p *ProvisionedPasswords) HashRandom() (string, error) {
	secret := make([]byte, provisionedSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to draw provisioned password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawURLEncoding.EncodeToString(secret)), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash provisioned password: %w", err)
	}
	return string(hash), nil
}
