package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/shared/config"
)

const (
	AccessTokenCookie = "access_token"
	AnonymousCookie   = "lc_anon"
	WelcomeCookie     = "lc_welcome"

	AnonymousCookieMaxAge = 30 * 24 * 60 * 60
	WelcomeCookieMaxAge   = 60
)

// SetSessionCookie stores the local session token as an HttpOnly cookie.
func SetSessionCookie(c *gin.Context, cookieConfig config.CookieConfig, token string, maxAge int) {
	setCookie(c, cookieConfig, AccessTokenCookie, token, maxAge, true)
}

// ClearSessionCookie removes the local session cookie.
func ClearSessionCookie(c *gin.Context, cookieConfig config.CookieConfig) {
	setCookie(c, cookieConfig, AccessTokenCookie, "", -1, true)
}

// SetAnonymousCookie stores the anonymous session identifier used to derive
// state-token owner keys for visitors without a local session.
func SetAnonymousCookie(c *gin.Context, cookieConfig config.CookieConfig, id string) {
	setCookie(c, cookieConfig, AnonymousCookie, id, AnonymousCookieMaxAge, true)
}

// SetWelcomeCookie sets a short-lived flag that client-side script reads to
// show a one-time notice, so it must not be HttpOnly.
func SetWelcomeCookie(c *gin.Context, cookieConfig config.CookieConfig, value string) {
	setCookie(c, cookieConfig, WelcomeCookie, value, WelcomeCookieMaxAge, false)
}

// GetTokenFromCookie returns the named cookie value or "".
func GetTokenFromCookie(c *gin.Context, cookieName string) string {
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func setCookie(c *gin.Context, cookieConfig config.CookieConfig, name, value string, maxAge int, httpOnly bool) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	path := cookieConfig.Path
	if path == "" {
		path = "/"
	}
	c.SetCookie(name, value, maxAge, path, cookieConfig.Domain, cookieConfig.Secure, httpOnly)
}

// parseSameSite converts string to http.SameSite
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
