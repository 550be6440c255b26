package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	"github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/constants"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

type sessionVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware reads the local session cookie.
type AuthMiddleware struct {
	sessions     sessionVerifier
	cookieConfig config.CookieConfig
	logger       logger.Interface
}

func NewAuthMiddleware(sessions sessionVerifier, cookieConfig config.CookieConfig, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:     sessions,
		cookieConfig: cookieConfig,
		logger:       logger,
	}
}

// OptionalAuth sets the user ID when a valid session cookie is present. An
// invalid cookie is cleared and the request continues anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.GetTokenFromCookie(c, utils.AccessTokenCookie)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.sessions.Verify(token)
		if err != nil {
			m.logger.Debugw("ignoring invalid session cookie", "error", err)
			utils.ClearSessionCookie(c, m.cookieConfig)
			c.Next()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid session. Run it after OptionalAuth.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(constants.ContextKeyUserID); !exists {
			c.Redirect(http.StatusSeeOther, constants.PathAuthStart)
			c.Abort()
			return
		}
		c.Next()
	}
}
