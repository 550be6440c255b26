package middleware

import (
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/constants"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

const anonymousIDBytes = 32

type randomSource interface {
	Random(nBytes int) (string, error)
}

// AnonymousSession guarantees every visitor carries the lc_anon cookie, which
// scopes state tokens for visitors without a local session.
func AnonymousSession(random randomSource, cookieConfig config.CookieConfig, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := utils.GetTokenFromCookie(c, utils.AnonymousCookie)
		if !validAnonymousID(id) {
			generated, err := random.Random(anonymousIDBytes)
			if err != nil {
				log.Errorw("failed to generate anonymous session id", "error", err)
				c.AbortWithStatus(500)
				return
			}
			id = generated
			utils.SetAnonymousCookie(c, cookieConfig, id)
		}

		c.Set(constants.ContextKeyAnonymousID, id)
		c.Next()
	}
}

func validAnonymousID(id string) bool {
	if len(id) != anonymousIDBytes*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
