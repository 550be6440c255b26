package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	"github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/constants"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCookies = config.CookieConfig{Path: "/", SameSite: "Lax"}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func echoContext(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.GetUint64(constants.ContextKeyUserID),
		"anon_id": c.GetString(constants.ContextKeyAnonymousID),
	})
}

func TestAuthMiddleware(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	m := NewAuthMiddleware(jwtSvc, testCookies, logger.NewNopLogger())

	r := gin.New()
	r.Use(m.OptionalAuth())
	r.GET("/whoami", echoContext)
	r.GET("/private", m.RequireAuth(), echoContext)

	valid, err := jwtSvc.Generate(42)
	require.NoError(t, err)

	t.Run("valid cookie sets the user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: valid})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":42`)
	})

	t.Run("invalid cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: "garbage"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":0`)
		cleared := cookieNamed(w, utils.AccessTokenCookie)
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("require auth redirects anonymous visitors", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, constants.PathAuthStart, w.Header().Get("Location"))
	})

	t.Run("require auth passes signed-in users", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: valid})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

type failingRandom struct{}

func (failingRandom) Random(int) (string, error) { return "", errors.New("entropy exhausted") }

func TestAnonymousSession(t *testing.T) {
	newRouter := func(random randomSource) *gin.Engine {
		r := gin.New()
		r.Use(AnonymousSession(random, testCookies, logger.NewNopLogger()))
		r.GET("/", echoContext)
		return r
	}

	t.Run("issues a cookie to new visitors", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(token.NewTokenGenerator()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		issued := cookieNamed(w, utils.AnonymousCookie)
		require.NotNil(t, issued)
		assert.Len(t, issued.Value, 64)
		assert.True(t, issued.HttpOnly)
		assert.Contains(t, w.Body.String(), issued.Value)
	})

	t.Run("keeps a valid cookie", func(t *testing.T) {
		existing := strings.Repeat("ab", 32)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.AnonymousCookie, Value: existing})
		w := httptest.NewRecorder()
		newRouter(token.NewTokenGenerator()).ServeHTTP(w, req)

		assert.Nil(t, cookieNamed(w, utils.AnonymousCookie))
		assert.Contains(t, w.Body.String(), existing)
	})

	t.Run("replaces a malformed cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.AnonymousCookie, Value: "not-hex"})
		w := httptest.NewRecorder()
		newRouter(token.NewTokenGenerator()).ServeHTTP(w, req)

		issued := cookieNamed(w, utils.AnonymousCookie)
		require.NotNil(t, issued)
		assert.NotEqual(t, "not-hex", issued.Value)
	})

	t.Run("generation failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(failingRandom{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type fakeRedeemer struct {
	token  string
	result *usecases.RedeemSessionResult
	err    error
	calls  int
}

func (f *fakeRedeemer) Execute(_ context.Context, plainToken string) (*usecases.RedeemSessionResult, error) {
	f.calls++
	f.token = plainToken
	return f.result, f.err
}

func TestSessionTransfer(t *testing.T) {
	policy, err := utils.NewRedirectPolicy("https://shop.example.com")
	require.NoError(t, err)

	newRouter := func(redeemer sessionRedeemer) *gin.Engine {
		r := gin.New()
		r.Use(SessionTransfer(redeemer, policy, testCookies, 3600, logger.NewNopLogger()))
		r.GET("/*path", func(c *gin.Context) { c.String(http.StatusOK, "page") })
		return r
	}

	t.Run("redeems and strips the token", func(t *testing.T) {
		redeemer := &fakeRedeemer{result: &usecases.RedeemSessionResult{LocalUserID: 9, SessionToken: "jwt-9"}}
		w := httptest.NewRecorder()
		newRouter(redeemer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart?item=3&session_token=plain-1", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://shop.example.com/cart?item=3", w.Header().Get("Location"))
		assert.Equal(t, "plain-1", redeemer.token)

		session := cookieNamed(w, utils.AccessTokenCookie)
		require.NotNil(t, session)
		assert.Equal(t, "jwt-9", session.Value)
		assert.True(t, session.HttpOnly)

		welcome := cookieNamed(w, utils.WelcomeCookie)
		require.NotNil(t, welcome)
		assert.False(t, welcome.HttpOnly)
	})

	t.Run("rejected token still strips the parameter", func(t *testing.T) {
		redeemer := &fakeRedeemer{err: errors.New("unknown token")}
		w := httptest.NewRecorder()
		newRouter(redeemer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart?session_token=replayed", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://shop.example.com/cart", w.Header().Get("Location"))
		assert.Nil(t, cookieNamed(w, utils.AccessTokenCookie))
	})

	t.Run("requests without a token pass through", func(t *testing.T) {
		redeemer := &fakeRedeemer{}
		w := httptest.NewRecorder()
		newRouter(redeemer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, redeemer.calls)
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Logger(logger.NewNopLogger()), Recovery(logger.NewNopLogger()))
	r.Any("/panic", func(*gin.Context) { panic("boom") })

	t.Run("browser request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		req.Header.Set(constants.HeaderXRequestID, "req-7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "req-7")
	})

	t.Run("json request gets the envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/panic", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})
}

func TestIsClientGone(t *testing.T) {
	assert.True(t, isClientGone(fmt.Errorf("write: %w", syscall.EPIPE)))
	assert.False(t, isClientGone("boom"))
	assert.False(t, isClientGone(errors.New("other")))
}

func TestLogger_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(logger.NewNopLogger()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(constants.ContextKeyRequestID)) })

	t.Run("propagates the caller's ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(constants.HeaderXRequestID, "edge-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "edge-123", w.Header().Get(constants.HeaderXRequestID))
		assert.Equal(t, "edge-123", w.Body.String())
	})

	t.Run("generates one when missing or oversized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(constants.HeaderXRequestID, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assigned := w.Header().Get(constants.HeaderXRequestID)
		assert.Len(t, assigned, 36)
		assert.Equal(t, assigned, w.Body.String())
	})
}

func TestCSRF(t *testing.T) {
	policy, err := utils.NewRedirectPolicy("https://shop.example.com/store/")
	require.NoError(t, err)

	r := gin.New()
	r.Use(CSRF(policy, logger.NewNopLogger()))
	r.POST("/liff/", func(c *gin.Context) { c.String(http.StatusOK, "linked") })
	r.GET("/liff/", func(c *gin.Context) { c.String(http.StatusOK, "page") })

	post := func(contentType string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "https://login.example.com/liff/", strings.NewReader(`{"access_token":"other-account"}`))
		req.Header.Set("Content-Type", contentType)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"same-origin fetch", map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusOK},
		{"site origin", map[string]string{"Origin": "https://shop.example.com"}, http.StatusOK},
		{"serving host", map[string]string{"Origin": "https://login.example.com"}, http.StatusOK},
		{"referer fallback", map[string]string{"Referer": "https://shop.example.com/store/cart"}, http.StatusOK},
		{"no browser headers", nil, http.StatusOK},
		{"cross-site origin", map[string]string{"Origin": "https://evil.example", "Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
		{"cross-site without origin", map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
		{"opaque origin", map[string]string{"Origin": "null"}, http.StatusForbidden},
		{"foreign referer", map[string]string{"Referer": "https://evil.example/form.html"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post("text/plain", tt.headers)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.NotContains(t, w.Body.String(), "linked")
			}
		})
	}

	t.Run("json callers get the envelope", func(t *testing.T) {
		w := post("application/json", map[string]string{"Origin": "https://evil.example"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"csrf_error"`)
	})

	t.Run("safe methods pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/liff/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
