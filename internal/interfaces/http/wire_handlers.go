package http

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/interfaces/http/handlers"
)

type allHandlers struct {
	identity *handlers.IdentityHandler
	liff     *handlers.LiffHandler
	health   *handlers.HealthHandler
}

func (c *Container) newHandlers() *allHandlers {
	notices := handlers.NewSettingNotices(c.svcs.settings, c.svcs.markdown, c.log)

	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}

	return &allHandlers{
		identity: handlers.NewIdentityHandler(
			c.ucs.initiateLogin,
			c.ucs.callback,
			c.ucs.resolver,
			c.ucs.unlink,
			c.svcs.ownerKeys,
			c.svcs.policy,
			notices,
			c.log.Named("auth"),
		),
		liff:   handlers.NewLiffHandler(c.ucs.liffLogin, c.svcs.providers.LiffID, c.svcs.policy, notices, c.log.Named("liff")),
		health: handlers.NewHealthHandler(checks, c.log),
	}
}
