package http

import (
	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
)

type allUseCases struct {
	resolver      *usecases.IdentityResolver
	initiateLogin *usecases.InitiateLoginUseCase
	callback      *usecases.HandleCallbackUseCase
	liffLogin     *usecases.LiffLoginUseCase
	redeem        *usecases.RedeemSessionUseCase
	unlink        *usecases.UnlinkUseCase
}

func (c *Container) newUseCases(legacy []identity.LegacySource) *allUseCases {
	c.dispatcher = newEventDispatcher(c.log)

	resolver := usecases.NewIdentityResolver(
		c.repos.bindingRepo,
		legacy,
		c.repos.userRepo,
		c.repos.userRepo,
		c.svcs.pending,
		c.svcs.transfers,
		c.dispatcher,
		c.svcs.markdown,
		c.svcs.tokens,
		usecases.ResolverConfig{
			MergeRequiresVerifiedEmail: c.cfg.Identity.MergeRequiresVerifiedEmail,
			UsernamePrefix:             c.cfg.Identity.UsernamePrefix,
		},
		c.log.Named("resolver"),
	)

	clients := oauthClientSource(c.svcs.providers)
	return &allUseCases{
		resolver:      resolver,
		initiateLogin: usecases.NewInitiateLoginUseCase(clients, c.svcs.states, c.log),
		callback:      usecases.NewHandleCallbackUseCase(clients, c.svcs.states, resolver, c.log),
		liffLogin:     usecases.NewLiffLoginUseCase(liffVerifierSource(c.svcs.providers), resolver, c.log),
		redeem:        usecases.NewRedeemSessionUseCase(c.svcs.transfers, c.svcs.jwt, c.repos.userRepo, c.log),
		unlink:        usecases.NewUnlinkUseCase(c.repos.bindingRepo, c.log),
	}
}
