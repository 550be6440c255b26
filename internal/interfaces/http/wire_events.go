package http

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/lineconnect/internal/application/identity/eventhandlers"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
	"github.com/orris-inc/lineconnect/internal/infrastructure/pubsub"
	"github.com/orris-inc/lineconnect/internal/shared/goroutine"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const (
	eventQueueSize      = 256
	eventWorkers        = 2
	eventHandlerTimeout = 20 * time.Second
	eventDrainTimeout   = 10 * time.Second
)

func newEventDispatcher(log logger.Interface) events.Dispatcher {
	return events.NewAsyncDispatcher(events.Options{
		QueueSize:      eventQueueSize,
		Workers:        eventWorkers,
		HandlerTimeout: eventHandlerTimeout,
	}, log.Named("events"))
}

func (c *Container) startEventDispatcher() error {
	handlers := []events.Handler{eventhandlers.NewSessionLogHandler(c.log)}
	if c.svcs.mailer != nil {
		handlers = append(handlers, eventhandlers.NewWelcomeEmailHandler(
			c.svcs.mailer,
			c.repos.userRepo,
			c.svcs.settings,
			c.svcs.markdown,
			c.cfg.Server.SiteURL,
			c.log,
		))
	}

	for _, h := range handlers {
		if err := c.dispatcher.Subscribe(identity.EventTypeSessionEstablished, h); err != nil {
			return fmt.Errorf("failed to subscribe event handler: %w", err)
		}
	}
	if err := c.dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	return nil
}

// startSettingSync reloads settings-driven components when another process,
// such as the settings CLI, announces a change over Redis.
func (c *Container) startSettingSync(ctx context.Context) {
	if c.redis == nil {
		c.log.Infow("no redis client, setting changes from other processes apply after restart")
		return
	}

	syncCtx, cancel := context.WithCancel(ctx)
	c.syncCancel = cancel

	bus := pubsub.NewRedisSettingChangeBus(c.redis, c.log.Named("setting-sync"))
	goroutine.SafeGoContext(syncCtx, c.log, "setting-sync", func(ctx context.Context) error {
		return bus.Subscribe(ctx, func(ctx context.Context, e pubsub.SettingChangeEvent) {
			if err := c.svcs.settings.NotifyChange(ctx, e.Group, nil); err != nil {
				c.log.Warnw("failed to apply setting change", "group", e.Group, "error", err)
			}
		}, nil)
	})
}
