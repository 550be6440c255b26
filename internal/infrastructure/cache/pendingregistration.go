package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
)

const pendingKeyPrefix = "pending:"

// ErrPendingNotFound is returned for unknown, expired or consumed temp keys.
var ErrPendingNotFound = errors.New("pending registration not found")

// PendingRegistrationStore parks profiles awaiting an email address.
type PendingRegistrationStore struct {
	store  TokenStore
	tokens token.TokenGenerator
	ttl    time.Duration
}

func NewPendingRegistrationStore(store TokenStore, tokens token.TokenGenerator) *PendingRegistrationStore {
	return &PendingRegistrationStore{
		store:  store,
		tokens: tokens,
		ttl:    identity.PendingRegistrationTTL,
	}
}

// Create assigns TempKey, Nonce and CreatedAt and stores the registration.
func (s *PendingRegistrationStore) Create(ctx context.Context, pending *identity.PendingRegistration) error {
	nonce, err := s.tokens.Random(token.NonceBytes)
	if err != nil {
		return err
	}
	pending.TempKey = uuid.NewString()
	pending.Nonce = nonce
	pending.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending registration: %w", err)
	}
	if err := s.store.Put(ctx, pendingKeyPrefix+pending.TempKey, string(data), s.ttl); err != nil {
		return fmt.Errorf("failed to store pending registration: %w", err)
	}
	return nil
}

// Peek reads a registration without consuming it.
func (s *PendingRegistrationStore) Peek(ctx context.Context, tempKey string) (*identity.PendingRegistration, error) {
	if tempKey == "" {
		return nil, ErrPendingNotFound
	}
	data, err := s.store.Get(ctx, pendingKeyPrefix+tempKey)
	return s.decode(data, err)
}

// Consume reads and deletes a registration. Only one caller can succeed.
func (s *PendingRegistrationStore) Consume(ctx context.Context, tempKey string) (*identity.PendingRegistration, error) {
	if tempKey == "" {
		return nil, ErrPendingNotFound
	}
	data, err := s.store.GetAndDelete(ctx, pendingKeyPrefix+tempKey)
	return s.decode(data, err)
}

func (s *PendingRegistrationStore) decode(data string, err error) (*identity.PendingRegistration, error) {
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("failed to load pending registration: %w", err)
	}
	var pending identity.PendingRegistration
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending registration: %w", err)
	}
	return &pending, nil
}
