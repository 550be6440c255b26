package usecases

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type InitiateLoginCommand struct {
	OwnerKey     string
	RedirectURL  string
	ForceConsent bool
	QRFirst      bool
}

type InitiateLoginResult struct {
	AuthURL string
}

type InitiateLoginUseCase struct {
	clients OAuthClientSource
	states  StateStore
	logger  logger.Interface
}

func NewInitiateLoginUseCase(clients OAuthClientSource, states StateStore, logger logger.Interface) *InitiateLoginUseCase {
	return &InitiateLoginUseCase{
		clients: clients,
		states:  states,
		logger:  logger,
	}
}

func (uc *InitiateLoginUseCase) Execute(ctx context.Context, cmd InitiateLoginCommand) (*InitiateLoginResult, error) {
	client, err := uc.clients()
	if err != nil {
		return nil, err
	}

	if err := uc.states.StashRedirect(ctx, cmd.OwnerKey, cmd.RedirectURL); err != nil {
		uc.logger.Errorw("failed to stash redirect", "error", err)
		return nil, err
	}

	authURL, err := client.BuildAuthorizationURL(ctx, cmd.OwnerKey, auth.AuthorizeOptions{
		ForceConsent: cmd.ForceConsent,
		QRFirst:      cmd.QRFirst,
	})
	if err != nil {
		uc.logger.Errorw("failed to build authorization URL", "error", err)
		return nil, err
	}

	return &InitiateLoginResult{AuthURL: authURL}, nil
}
