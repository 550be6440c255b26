package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

// SessionTransferTTL bounds the gap between callback and redemption.
const SessionTransferTTL = 60 * time.Second

const transferKeyPrefix = "transfer:"

// ErrTransferNotFound is returned for unknown, expired or already redeemed tokens.
var ErrTransferNotFound = errors.New("session transfer token not found")

// TransferPayload is what a session transfer token carries.
type TransferPayload struct {
	LocalUserID uint64    `json:"local_user_id"`
	RedirectURL string    `json:"redirect_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionTransferBroker hands a completed login to whichever browser context
// follows the redirect. Tokens are stored only as their SHA-256 digest and
// are redeemable once. The broker never touches session cookies.
type SessionTransferBroker struct {
	store  TokenStore
	tokens token.TokenGenerator
	policy *utils.RedirectPolicy
	ttl    time.Duration
}

func NewSessionTransferBroker(store TokenStore, tokens token.TokenGenerator, policy *utils.RedirectPolicy) *SessionTransferBroker {
	return &SessionTransferBroker{
		store:  store,
		tokens: tokens,
		policy: policy,
		ttl:    SessionTransferTTL,
	}
}

// Issue returns a fresh plain token for localUserID. Off-origin redirect
// targets are replaced with the site root.
func (b *SessionTransferBroker) Issue(ctx context.Context, localUserID uint64, redirectURL string) (string, error) {
	if localUserID == 0 {
		return "", errors.New("local user ID is required")
	}

	plain, hash, err := b.tokens.Generate(token.TransferTokenBytes)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(TransferPayload{
		LocalUserID: localUserID,
		RedirectURL: b.policy.Sanitize(redirectURL),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfer payload: %w", err)
	}

	if err := b.store.Put(ctx, transferKeyPrefix+hash, string(data), b.ttl); err != nil {
		return "", fmt.Errorf("failed to store transfer token: %w", err)
	}
	return plain, nil
}

// Redeem consumes the token. Only one of any concurrent redeemers succeeds.
func (b *SessionTransferBroker) Redeem(ctx context.Context, plainToken string) (*TransferPayload, error) {
	if plainToken == "" {
		return nil, ErrTransferNotFound
	}

	data, err := b.store.GetAndDelete(ctx, transferKeyPrefix+b.tokens.Hash(plainToken))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to redeem transfer token: %w", err)
	}

	var payload TransferPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer payload: %w", err)
	}
	return &payload, nil
}
