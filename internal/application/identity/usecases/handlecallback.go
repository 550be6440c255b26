package usecases

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils/logutil"
)

type HandleCallbackCommand struct {
	OwnerKey string
	Caller   identity.CallerContext
	Code     string
	State    string
	// ProviderError is the error parameter LINE appends when the user
	// cancels or the request is rejected.
	ProviderError            string
	ProviderErrorDescription string
}

type HandleCallbackUseCase struct {
	clients  OAuthClientSource
	states   StateStore
	resolver *IdentityResolver
	logger   logger.Interface
}

func NewHandleCallbackUseCase(clients OAuthClientSource, states StateStore, resolver *IdentityResolver, logger logger.Interface) *HandleCallbackUseCase {
	return &HandleCallbackUseCase{
		clients:  clients,
		states:   states,
		resolver: resolver,
		logger:   logger,
	}
}

func (uc *HandleCallbackUseCase) Execute(ctx context.Context, cmd HandleCallbackCommand) (*Resolution, error) {
	// The state is consumed on every path so a callback URL cannot be replayed.
	valid, err := uc.states.Validate(ctx, cmd.OwnerKey, cmd.State)
	if err != nil {
		return nil, err
	}

	if cmd.ProviderError != "" {
		uc.logger.Infow("LINE returned an authorization error",
			"error", cmd.ProviderError,
			"description", cmd.ProviderErrorDescription,
		)
		return nil, apperrors.NewOAuthError(identity.Provider, "authorize", cmd.ProviderError)
	}

	if !valid {
		uc.logger.Warnw("state validation failed", "state", logutil.Token(cmd.State))
		return nil, apperrors.NewCsrfError("login request expired or was started in another tab")
	}

	client, err := uc.clients()
	if err != nil {
		return nil, err
	}

	exchanged, err := client.ExchangeCode(ctx, cmd.OwnerKey, cmd.Code)
	if err != nil {
		uc.logger.Errorw("code exchange failed", "error", err)
		return nil, err
	}

	profile, err := client.FetchProfile(ctx, exchanged.Tokens.AccessToken)
	if err != nil {
		uc.logger.Errorw("profile fetch failed", "error", err)
		return nil, err
	}

	claims := client.VerifyIDToken(exchanged.Tokens.IDToken, exchanged.Nonce)
	if sub := auth.SubjectFromClaims(claims); sub == profile.UID {
		if email, ok := auth.EmailFromClaims(claims); ok {
			profile.Email = email
			profile.EmailVerified = true
		}
	} else if exchanged.Tokens.IDToken != "" {
		uc.logger.Warnw("ID token rejected", "uid", profile.UID)
	}

	var isFriend *bool
	if friend, err := client.FetchFriendship(ctx, exchanged.Tokens.AccessToken); err == nil {
		isFriend = &friend
	} else {
		uc.logger.Debugw("friendship status unavailable", "error", err)
	}

	return uc.resolver.Resolve(ctx, ResolveCommand{
		Caller:      cmd.Caller,
		Profile:     *profile,
		Tokens:      exchanged.Tokens,
		IsFriend:    isFriend,
		RedirectURL: uc.states.PopRedirect(ctx, cmd.OwnerKey),
		Method:      identity.MethodOAuth,
	})
}
