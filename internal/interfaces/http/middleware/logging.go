package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orris-inc/lineconnect/internal/shared/constants"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const maxRequestIDLength = 64

// Logger assigns a request ID and logs one line per request. It logs the
// matched route rather than the raw URL because query strings carry codes,
// states and transfer tokens. Health probes stay at debug.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		if userID, ok := c.Get(constants.ContextKeyUserID); ok {
			args = append(args, "user_id", userID)
		} else if c.GetString(constants.ContextKeyAnonymousID) != "" {
			args = append(args, "anonymous", true)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", args...)
		case status >= 400:
			log.Warnw("request rejected", args...)
		case route == "/healthz":
			log.Debugw("health probe", args...)
		default:
			log.Infow("request served", args...)
		}
	}
}
