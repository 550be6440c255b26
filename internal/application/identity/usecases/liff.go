package usecases

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type LiffLoginCommand struct {
	Caller      identity.CallerContext
	AccessToken string
	IDToken     string
	// IsFriend is the flag reported by liff.getFriendship(), when the page sent it.
	IsFriend    *bool
	RedirectURL string
}

type LiffLoginUseCase struct {
	verifiers LiffVerifierSource
	resolver  *IdentityResolver
	logger    logger.Interface
}

func NewLiffLoginUseCase(verifiers LiffVerifierSource, resolver *IdentityResolver, logger logger.Interface) *LiffLoginUseCase {
	return &LiffLoginUseCase{
		verifiers: verifiers,
		resolver:  resolver,
		logger:    logger,
	}
}

func (uc *LiffLoginUseCase) Execute(ctx context.Context, cmd LiffLoginCommand) (*Resolution, error) {
	verifier, err := uc.verifiers()
	if err != nil {
		return nil, err
	}

	verified, err := verifier.VerifyAndFetchProfile(ctx, cmd.AccessToken, cmd.IDToken)
	if err != nil {
		uc.logger.Warnw("LIFF token rejected", "error", err)
		return nil, err
	}

	return uc.resolver.Resolve(ctx, ResolveCommand{
		Caller:      cmd.Caller,
		Profile:     verified.Profile,
		Tokens:      verified.Tokens,
		IsFriend:    cmd.IsFriend,
		RedirectURL: cmd.RedirectURL,
		Method:      identity.MethodLiff,
	})
}
