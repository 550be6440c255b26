package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
	"github.com/orris-inc/lineconnect/internal/infrastructure/config"
	"github.com/orris-inc/lineconnect/internal/interfaces/http/middleware"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// Container holds infrastructure, repositories, use cases and handlers, wires
// them together and shuts the background parts down.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	repos *repositories
	svcs  *services
	ucs   *allUseCases
	hdlrs *allHandlers

	authMiddleware *middleware.AuthMiddleware

	dispatcher    events.Dispatcher
	janitorCancel context.CancelFunc
	syncCancel    context.CancelFunc
}

// NewContainer wires the application. redisClient may be nil when the token
// store driver is "memory".
func NewContainer(ctx context.Context, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
	}

	c.repos = newRepositories(db, log)

	svcs, err := c.newServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	c.svcs = svcs

	legacy, err := c.newLegacySources()
	if err != nil {
		return nil, err
	}

	c.ucs = c.newUseCases(legacy)
	c.hdlrs = c.newHandlers()
	c.authMiddleware = middleware.NewAuthMiddleware(c.svcs.jwt, cfg.Auth.Cookie, log)

	if err := c.startEventDispatcher(); err != nil {
		return nil, err
	}
	c.startSettingSync(ctx)

	return c, nil
}

// Engine returns the gin engine with routes registered.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// Shutdown stops background work. Call it after the HTTP server has drained.
func (c *Container) Shutdown() {
	if c.janitorCancel != nil {
		c.janitorCancel()
	}
	if c.syncCancel != nil {
		c.syncCancel()
	}
	if c.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), eventDrainTimeout)
		defer cancel()
		if err := c.dispatcher.Stop(ctx); err != nil {
			c.log.Warnw("failed to stop event dispatcher", "error", err)
		}
	}
}
