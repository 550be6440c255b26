package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/shared/constants"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

const (
	headerSecFetchSite = "Sec-Fetch-Site"
	headerOrigin       = "Origin"
	headerReferer      = "Referer"
)

type originPolicy interface {
	SameOrigin(u *url.URL) bool
}

// CSRF rejects mutating requests a browser sent from another origin. The
// session cookie may be SameSite=None for in-app browsers, so the source is
// taken from Sec-Fetch-Site, else Origin, else Referer. Requests carrying
// none of these headers are not browser submissions and pass.
//
// Trusted origins are the site's own and the host serving the request.
func CSRF(site originPolicy, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		switch c.GetHeader(headerSecFetchSite) {
		case "same-origin", "none":
			c.Next()
			return
		}

		source := c.GetHeader(headerOrigin)
		if source == "" {
			source = c.GetHeader(headerReferer)
		}
		if source == "" && c.GetHeader(headerSecFetchSite) == "" {
			c.Next()
			return
		}

		if !trustedSource(source, site, c.Request.Host) {
			log.Warnw("cross-origin request rejected",
				"request_id", c.GetString(constants.ContextKeyRequestID),
				"route", c.FullPath(),
				"origin", source,
				"fetch_site", c.GetHeader(headerSecFetchSite),
			)
			rejectCrossOrigin(c)
			return
		}
		c.Next()
	}
}

func trustedSource(source string, site originPolicy, host string) bool {
	if source == "" || source == "null" {
		return false
	}
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return false
	}
	return site.SameOrigin(u) || strings.EqualFold(u.Host, host)
}

func rejectCrossOrigin(c *gin.Context) {
	err := apperrors.NewCsrfError("cross-origin request rejected")
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		utils.ErrorResponseWithError(c, err)
		c.Abort()
		return
	}
	c.AbortWithStatus(http.StatusForbidden)
	_, _ = c.Writer.WriteString("Forbidden: this request did not come from the site.")
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
