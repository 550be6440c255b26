package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerKeys(t *testing.T) {
	keys := NewOwnerKeys("server-secret")

	assert.Equal(t, keys.ForUser(42), keys.ForUser(42))
	assert.NotEqual(t, keys.ForUser(42), keys.ForUser(43))
	assert.NotEqual(t, keys.ForUser(42), keys.ForAnonymous("42"))
	assert.Len(t, keys.ForAnonymous("cookie"), 64)
	assert.NotContains(t, keys.ForAnonymous("cookie-value"), "cookie-value")

	other := NewOwnerKeys("another-secret")
	assert.NotEqual(t, keys.ForUser(42), other.ForUser(42))
}
