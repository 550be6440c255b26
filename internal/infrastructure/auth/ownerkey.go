package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// OwnerKeys derives the keys state tokens are scoped under. Both kinds are
// HMACs so a cookie value never appears in the token store.
type OwnerKeys struct {
	secret []byte
}

func NewOwnerKeys(serverSecret string) *OwnerKeys {
	return &OwnerKeys{secret: []byte(serverSecret)}
}

// ForUser keys a flow started by an authenticated local user.
func (k *OwnerKeys) ForUser(localUserID uint64) string {
	return k.derive("uid:" + strconv.FormatUint(localUserID, 10))
}

// ForAnonymous keys a flow started by a visitor holding the anonymous cookie.
func (k *OwnerKeys) ForAnonymous(cookieID string) string {
	return k.derive("anon:" + cookieID)
}

func (k *OwnerKeys) derive(input string) string {
	mac := hmac.New(sha256.New, k.secret)
	mac.Write([]byte(input))
	return hex.EncodeToString(mac.Sum(nil))
}
