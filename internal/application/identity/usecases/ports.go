package usecases

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
)

// OAuthClient is the LINE Login client as the use cases see it.
type OAuthClient interface {
	BuildAuthorizationURL(ctx context.Context, ownerKey string, opts auth.AuthorizeOptions) (string, error)
	ExchangeCode(ctx context.Context, ownerKey, code string) (*auth.ExchangeResult, error)
	VerifyIDToken(idToken, expectedNonce string) map[string]any
	FetchProfile(ctx context.Context, accessToken string) (*identity.ExternalProfile, error)
	FetchFriendship(ctx context.Context, accessToken string) (bool, error)
}

// LiffProfileVerifier trusts a LIFF access token only after the provider confirms it.
type LiffProfileVerifier interface {
	VerifyAndFetchProfile(ctx context.Context, accessToken, idToken string) (*auth.LiffIdentity, error)
}

// OAuthClientSource returns the current client. Credentials can change at
// runtime, so the client is looked up per request.
type OAuthClientSource func() (OAuthClient, error)

type LiffVerifierSource func() (LiffProfileVerifier, error)

// StateStore issues and checks the state parameter and keeps the post-login
// redirect alongside it.
type StateStore interface {
	Validate(ctx context.Context, ownerKey, received string) (bool, error)
	StashRedirect(ctx context.Context, ownerKey, rawURL string) error
	PopRedirect(ctx context.Context, ownerKey string) string
}
