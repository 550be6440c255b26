package usecases

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/application/identity/testutil"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/services/markdown"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

const (
	testSiteURL = "https://shop.example.com"
	testUID     = "U4af4980629a1b2c3d4e5f60718293a4b"
)

type resolverFixture struct {
	bindings  *testutil.MockBindingRepository
	accounts  *testutil.MockAccounts
	legacy    *testutil.MockLegacySource
	publisher *testutil.MockEventPublisher
	store     *cache.MemoryTokenStore
	pending   *cache.PendingRegistrationStore
	transfers *cache.SessionTransferBroker
	policy    *utils.RedirectPolicy
	resolver  *IdentityResolver
}

func newResolverFixture(t *testing.T, cfg ResolverConfig) *resolverFixture {
	t.Helper()

	policy, err := utils.NewRedirectPolicy(testSiteURL)
	require.NoError(t, err)

	tokens := token.NewTokenGenerator()
	store := cache.NewMemoryTokenStore()
	f := &resolverFixture{
		bindings:  testutil.NewMockBindingRepository(),
		accounts:  testutil.NewMockAccounts(),
		legacy:    &testutil.MockLegacySource{Entries: map[string]uint64{}},
		publisher: &testutil.MockEventPublisher{},
		store:     store,
		pending:   cache.NewPendingRegistrationStore(store, tokens),
		transfers: cache.NewSessionTransferBroker(store, tokens, policy),
		policy:    policy,
	}
	f.resolver = NewIdentityResolver(
		f.bindings,
		[]identity.LegacySource{f.legacy},
		f.accounts,
		f.accounts,
		f.pending,
		f.transfers,
		f.publisher,
		markdown.NewMarkdownService(),
		tokens,
		cfg,
		logger.NewNopLogger(),
	)
	return f
}

func defaultResolverConfig() ResolverConfig {
	return ResolverConfig{MergeRequiresVerifiedEmail: true, UsernamePrefix: "line_"}
}

func testProfile(email string, verified bool) identity.ExternalProfile {
	return identity.ExternalProfile{
		UID:           testUID,
		DisplayName:   "Taro Yamada",
		AvatarURL:     "https://profile.line-scdn.net/0h1234",
		Email:         email,
		EmailVerified: verified,
	}
}

func anonymousCommand(profile identity.ExternalProfile) ResolveCommand {
	return ResolveCommand{
		Caller:      identity.AnonymousCaller(),
		Profile:     profile,
		Tokens:      identity.ProviderTokens{AccessToken: "line-access-token"},
		RedirectURL: testSiteURL + "/mypage",
		Method:      identity.MethodOAuth,
	}
}

func boolPtr(b bool) *bool { return &b }
