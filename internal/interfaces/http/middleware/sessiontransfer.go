package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
	"github.com/orris-inc/lineconnect/internal/shared/utils/logutil"
)

type sessionRedeemer interface {
	Execute(ctx context.Context, plainToken string) (*usecases.RedeemSessionResult, error)
}

type redirectSanitizer interface {
	Sanitize(raw string) string
}

// SessionTransfer intercepts ?session_token= on any path. A redeemable token
// becomes the session cookie; either way the visitor is redirected to the
// same URL without the parameter.
func SessionTransfer(redeemer sessionRedeemer, redirects redirectSanitizer, cookieConfig config.CookieConfig, maxAge int, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		plain := c.Query(utils.SessionTokenParam)
		if plain == "" {
			c.Next()
			return
		}

		res, err := redeemer.Execute(c.Request.Context(), plain)
		if err != nil {
			log.Warnw("session transfer rejected", "token", logutil.Token(plain), "error", err)
		} else {
			utils.SetSessionCookie(c, cookieConfig, res.SessionToken, maxAge)
			utils.SetWelcomeCookie(c, cookieConfig, "1")
		}

		c.Redirect(http.StatusFound, redirects.Sanitize(c.Request.URL.RequestURI()))
		c.Abort()
	}
}
