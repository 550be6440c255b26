package http

import (
	"context"
	"fmt"
	"time"

	settingApp "github.com/orris-inc/lineconnect/internal/application/setting"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	"github.com/orris-inc/lineconnect/internal/infrastructure/email"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	"github.com/orris-inc/lineconnect/internal/shared/constants"
	"github.com/orris-inc/lineconnect/internal/shared/goroutine"
	"github.com/orris-inc/lineconnect/internal/shared/services/markdown"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

const (
	tokenStoreDriverRedis  = "redis"
	tokenStoreDriverMemory = "memory"

	memoryJanitorInterval = time.Minute
)

type services struct {
	tokens    token.TokenGenerator
	store     cache.TokenStore
	policy    *utils.RedirectPolicy
	ownerKeys *auth.OwnerKeys
	states    *cache.StateTokenStore
	pending   *cache.PendingRegistrationStore
	transfers *cache.SessionTransferBroker
	jwt       *auth.JWTService
	settings  *settingApp.LayeredStore
	providers *auth.ProviderManager
	markdown  markdown.MarkdownService
	// mailer is nil when SMTP is not configured.
	mailer email.Sender
}

func (c *Container) newServices(ctx context.Context) (*services, error) {
	policy, err := utils.NewRedirectPolicy(c.cfg.Server.SiteURL)
	if err != nil {
		return nil, err
	}

	store, err := c.newTokenStore(ctx)
	if err != nil {
		return nil, err
	}

	tokens := token.NewTokenGenerator()
	s := &services{
		tokens:    tokens,
		store:     store,
		policy:    policy,
		ownerKeys: auth.NewOwnerKeys(c.cfg.Auth.ServerSecret),
		states:    cache.NewStateTokenStore(store, tokens, policy, c.log),
		pending:   cache.NewPendingRegistrationStore(store, tokens),
		transfers: cache.NewSessionTransferBroker(store, tokens, policy),
		jwt:       auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.SessionTTL()),
		markdown:  markdown.NewMarkdownService(),
	}

	s.settings = settingApp.NewLayeredStore(c.repos.settingRepo, settingApp.DefaultsFromConfig(c.cfg.Line), c.log)
	s.providers = auth.NewProviderManager(s.settings, auth.ProviderManagerConfig{
		CallbackURL: policy.OriginURL(constants.PathAuthCallback),
		Endpoints:   c.cfg.Line.Endpoints,
	}, s.states, store, tokens, c.log)
	if err := s.providers.Initialize(ctx); err != nil {
		return nil, err
	}
	s.settings.Subscribe(s.providers)

	if c.cfg.Email.IsConfigured() {
		s.mailer = email.NewSMTPEmailService(c.cfg.Email)
	} else {
		c.log.Infow("SMTP not configured, welcome emails disabled")
	}

	return s, nil
}

func (c *Container) newTokenStore(ctx context.Context) (cache.TokenStore, error) {
	switch c.cfg.TokenStore.Driver {
	case tokenStoreDriverRedis:
		if c.redis == nil {
			return nil, fmt.Errorf("token_store.driver is redis but no redis client was provided")
		}
		return cache.NewRedisTokenStore(c.redis, c.cfg.TokenStore.Prefix), nil
	case tokenStoreDriverMemory:
		c.log.Warnw("using in-memory token store, only safe for a single instance")
		store := cache.NewMemoryTokenStore()
		janitorCtx, cancel := context.WithCancel(ctx)
		c.janitorCancel = cancel
		goroutine.SafeGo(c.log, "token-janitor", func() { store.RunJanitor(janitorCtx, memoryJanitorInterval) })
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported token_store.driver %q", c.cfg.TokenStore.Driver)
	}
}
