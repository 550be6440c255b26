package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

const testSiteURL = "https://shop.example.com"

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

// storesUnderTest runs fn once per TokenStore backend.
func storesUnderTest(t *testing.T, fn func(t *testing.T, store TokenStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryTokenStore())
	})
	t.Run("redis", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		fn(t, NewRedisTokenStore(client, "test:"))
	})
}

func testPolicy(t *testing.T) *utils.RedirectPolicy {
	t.Helper()
	policy, err := utils.NewRedirectPolicy(testSiteURL)
	require.NoError(t, err)
	return policy
}

func newTestStateStore(t *testing.T, store TokenStore) *StateTokenStore {
	return NewStateTokenStore(store, token.NewTokenGenerator(), testPolicy(t), logger.NewNopLogger())
}
