package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_PutGetDelete(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store TokenStore) {
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "k", "v1", time.Minute))
		v, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v1", v)

		require.NoError(t, store.Put(ctx, "k", "v2", time.Minute))
		v, err = store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)

		require.NoError(t, store.Delete(ctx, "k"))
		_, err = store.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrKeyNotFound)

		assert.Error(t, store.Put(ctx, "", "v", time.Minute))
	})
}

func TestTokenStore_GetAndDeleteOnce(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store TokenStore) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, "once", "payload", time.Minute))

		v, err := store.GetAndDelete(ctx, "once")
		require.NoError(t, err)
		assert.Equal(t, "payload", v)

		_, err = store.GetAndDelete(ctx, "once")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestTokenStore_ConcurrentGetAndDelete(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store TokenStore) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, "race", "payload", time.Minute))

		const workers = 32
		var wins atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := store.GetAndDelete(ctx, "race"); err == nil {
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, "a", "1", 10*time.Second))
	require.NoError(t, store.Put(ctx, "b", "2", time.Minute))

	now = now.Add(10 * time.Second)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = store.GetAndDelete(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, store.Sweep())
}

func TestRedisTokenStore_ExpiryAndPrefix(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisTokenStore(client, "lineconnect:")

	require.NoError(t, store.Put(ctx, "state:abc", "v", 5*time.Second))
	assert.True(t, mr.Exists("lineconnect:state:abc"))

	mr.FastForward(6 * time.Second)
	_, err := store.Get(ctx, "state:abc")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
