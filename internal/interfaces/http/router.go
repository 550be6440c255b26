package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/interfaces/http/handlers"
	"github.com/orris-inc/lineconnect/internal/interfaces/http/middleware"
)

// SetupRoutes registers middleware and routes on the engine.
func (c *Container) SetupRoutes() {
	r := c.engine
	r.SetHTMLTemplate(handlers.Templates())

	r.Use(middleware.Recovery(c.log))
	r.Use(middleware.Logger(c.log))
	// Transfer tokens can land on any path, so this runs before routing.
	r.Use(middleware.SessionTransfer(c.ucs.redeem, c.svcs.policy, c.cfg.Auth.Cookie, c.svcs.jwt.MaxAge(), c.log))
	r.Use(c.authMiddleware.OptionalAuth())

	r.GET("/healthz", c.hdlrs.health.Check)

	anon := middleware.AnonymousSession(c.svcs.tokens, c.cfg.Auth.Cookie, c.log)
	csrf := middleware.CSRF(c.svcs.policy, c.log)

	auth := r.Group("/auth", anon)
	{
		auth.GET("/", c.hdlrs.identity.Start)
		auth.GET("/callback", c.hdlrs.identity.Callback)
		auth.GET("/email", c.hdlrs.identity.EmailForm)
		auth.POST("/email-submit", c.hdlrs.identity.SubmitEmail)
		auth.POST("/unlink", csrf, c.authMiddleware.RequireAuth(), c.hdlrs.identity.Unlink)
	}

	liff := r.Group("/liff", anon)
	{
		liff.GET("/", c.hdlrs.liff.Page)
		liff.POST("/", csrf, c.hdlrs.liff.Login)
	}

	r.NoRoute(func(ctx *gin.Context) {
		ctx.Redirect(http.StatusFound, c.svcs.policy.SiteRoot())
	})
}
