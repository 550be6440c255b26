package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	pkceMethod        = "S256"
	pkceVerifierBytes = 32
)

// pkcePair is an RFC 7636 verifier and its S256 challenge. The verifier
// never leaves the server; only the challenge goes into the authorize URL.
type pkcePair struct {
	verifier  string
	challenge string
}

type randomSource interface {
	Random(nBytes int) (string, error)
}

// newPKCEPair draws the verifier from the same source as the nonce. Hex
// output stays inside the unreserved alphabet and the 43..128 length bound.
func newPKCEPair(random randomSource) (pkcePair, error) {
	verifier, err := random.Random(pkceVerifierBytes)
	if err != nil {
		return pkcePair{}, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}
	return pkcePair{verifier: verifier, challenge: pkceChallenge(verifier)}, nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
