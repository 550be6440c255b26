package cache

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is absent or expired.
var ErrKeyNotFound = errors.New("key not found or expired")

// TokenStore is the ephemeral key/value store behind state tokens, redirect
// stashes, pending registrations and session transfer tokens. GetAndDelete
// must be atomic: of any number of concurrent callers for one key, at most
// one receives the value.
type TokenStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	GetAndDelete(ctx context.Context, key string) (string, error)
}
