package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/shared/constants"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

// Recovery turns a handler panic into a 500. The LIFF page posts JSON and
// expects the JSON envelope back; browser routes get a plain body carrying
// the request ID for support.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestID := c.GetString(constants.ContextKeyRequestID)

		if isClientGone(recovered) {
			log.Warnw("client went away mid-response", "request_id", requestID, "route", c.FullPath())
			c.Abort()
			return
		}

		log.Errorw("panic recovered",
			"request_id", requestID,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"panic", recovered,
			"stack", string(debug.Stack()),
		)

		if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
			utils.ErrorResponseWithError(c, apperrors.NewInternalError("unexpected server error"))
			c.Abort()
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		_, _ = c.Writer.WriteString("Internal server error. Reference: " + requestID)
	})
}

func isClientGone(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
