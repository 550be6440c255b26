package auth

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// verifyIDToken validates a LINE ID token signed with HS256 using the channel
// secret. An empty map means the token must not be trusted.
func verifyIDToken(idToken, channelID, channelSecret, expectedNonce string, now func() time.Time) map[string]any {
	if idToken == "" || channelID == "" || channelSecret == "" {
		return map[string]any{}
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(channelSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(LineIssuer),
		jwt.WithAudience(channelID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return map[string]any{}
	}

	if expectedNonce != "" {
		nonce, _ := claims["nonce"].(string)
		if subtle.ConstantTimeCompare([]byte(nonce), []byte(expectedNonce)) != 1 {
			return map[string]any{}
		}
	}
	return map[string]any(claims)
}

// EmailFromClaims returns the email claim of a verified ID token. LINE only
// releases addresses the user has confirmed, so a present email is treated
// as verified.
func EmailFromClaims(claims map[string]any) (string, bool) {
	email, _ := claims["email"].(string)
	return email, email != ""
}

// SubjectFromClaims returns the sub claim.
func SubjectFromClaims(claims map[string]any) string {
	sub, _ := claims["sub"].(string)
	return sub
}
