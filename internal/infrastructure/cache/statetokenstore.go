package cache

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
	"github.com/orris-inc/lineconnect/internal/shared/utils/logutil"
)

// StateTokenTTL is how long an authorization round trip may take.
const StateTokenTTL = 300 * time.Second

const (
	stateKeyPrefix    = "state:"
	redirectKeyPrefix = "redirect:"
)

// StateTokenStore issues anti-CSRF state tokens scoped to an owner key. Each
// owner holds at most one live token: generating again replaces it, so an
// older tab's callback fails validation.
type StateTokenStore struct {
	store  TokenStore
	tokens token.TokenGenerator
	policy *utils.RedirectPolicy
	ttl    time.Duration
	logger logger.Interface
}

func NewStateTokenStore(store TokenStore, tokens token.TokenGenerator, policy *utils.RedirectPolicy, logger logger.Interface) *StateTokenStore {
	return &StateTokenStore{
		store:  store,
		tokens: tokens,
		policy: policy,
		ttl:    StateTokenTTL,
		logger: logger,
	}
}

// Generate creates a fresh state token for ownerKey, replacing any previous one.
func (s *StateTokenStore) Generate(ctx context.Context, ownerKey string) (string, error) {
	if ownerKey == "" {
		return "", errors.New("owner key cannot be empty")
	}
	value, err := s.tokens.Random(token.StateTokenBytes)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, stateKeyPrefix+ownerKey, value, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store state token: %w", err)
	}
	return value, nil
}

// Validate consumes the stored token and compares it with received. The
// stored token is gone afterwards whatever the outcome.
func (s *StateTokenStore) Validate(ctx context.Context, ownerKey, received string) (bool, error) {
	if ownerKey == "" {
		return false, nil
	}
	stored, err := s.store.GetAndDelete(ctx, stateKeyPrefix+ownerKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			s.logger.Debugw("state token missing or expired", "received", logutil.Token(received))
			return false, nil
		}
		return false, fmt.Errorf("failed to load state token: %w", err)
	}
	if received == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1, nil
}

// StashRedirect remembers where to send the visitor after login.
func (s *StateTokenStore) StashRedirect(ctx context.Context, ownerKey, rawURL string) error {
	if ownerKey == "" {
		return errors.New("owner key cannot be empty")
	}
	if rawURL == "" {
		return s.store.Delete(ctx, redirectKeyPrefix+ownerKey)
	}
	target := s.policy.Sanitize(rawURL)
	if err := s.store.Put(ctx, redirectKeyPrefix+ownerKey, target, s.ttl); err != nil {
		return fmt.Errorf("failed to stash redirect: %w", err)
	}
	return nil
}

// PopRedirect returns and forgets the stashed redirect, or the site root.
func (s *StateTokenStore) PopRedirect(ctx context.Context, ownerKey string) string {
	if ownerKey == "" {
		return s.policy.SiteRoot()
	}
	target, err := s.store.GetAndDelete(ctx, redirectKeyPrefix+ownerKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warnw("failed to pop redirect", "error", err)
		}
		return s.policy.SiteRoot()
	}
	return s.policy.Sanitize(target)
}
