package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	sharedConfig "github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

const (
	testChannelID     = "1650000000"
	testChannelSecret = "channel-secret-for-tests"
	testUID           = "U4af4980629ee0ed3a8b5f0fd5b2b5b53"
)

// fakeLine stands in for the LINE Login and profile APIs.
type fakeLine struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	lastTokenForm map[string][]string
	tokenStatus   int
	tokenBody     string
	profileStatus int
	profileBody   string
	verifyStatus  int
	verifyBody    string
	friendFlag    bool
	idTokenClaims jwt.MapClaims
	profileDelay  time.Duration
	profileHits   int
}

func newFakeLine(t *testing.T) *fakeLine {
	f := &fakeLine{
		t:             t,
		tokenStatus:   http.StatusOK,
		profileStatus: http.StatusOK,
		profileBody:   `{"userId":"` + testUID + `","displayName":"Taro","pictureUrl":"https://profile.line-scdn.net/abc"}`,
		verifyStatus:  http.StatusOK,
		verifyBody:    `{"scope":"profile openid email","client_id":"` + testChannelID + `","expires_in":2591659}`,
		friendFlag:    true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/v2.1/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.lastTokenForm = r.PostForm
		status, body, claims := f.tokenStatus, f.tokenBody, f.idTokenClaims
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != "" {
			_, _ = w.Write([]byte(body))
			return
		}
		resp := map[string]any{
			"access_token":  "line-access-token",
			"refresh_token": "line-refresh-token",
			"token_type":    "Bearer",
			"expires_in":    2592000,
			"scope":         "profile openid email",
		}
		if claims != nil {
			resp["id_token"] = signIDToken(t, claims)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/v2/profile", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.profileHits++
		status, body, delay := f.profileStatus, f.profileBody, f.profileDelay
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/friendship/v1/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		flag := f.friendFlag
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]bool{"friendFlag": flag})
	})
	mux.HandleFunc("/oauth2/v2.1/verify", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, body := f.verifyStatus, f.verifyBody
		f.mu.Unlock()
		if r.URL.Query().Get("access_token") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request","error_description":"access_token required"}`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeLine) endpoints() sharedConfig.LineEndpoints {
	return sharedConfig.LineEndpoints{
		AuthURL:    "https://access.line.me/oauth2/v2.1/authorize",
		TokenURL:   f.server.URL + "/oauth2/v2.1/token",
		APIBaseURL: f.server.URL,
	}
}

func (f *fakeLine) set(fn func(f *fakeLine)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testChannelSecret))
	require.NoError(t, err)
	return signed
}

func validClaims(nonce string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   LineIssuer,
		"sub":   testUID,
		"aud":   testChannelID,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
		"nonce": nonce,
		"email": "taro@example.com",
		"name":  "Taro",
	}
}

type testDeps struct {
	store  *cache.MemoryTokenStore
	states *cache.StateTokenStore
	tokens token.TokenGenerator
}

func newTestDeps(t *testing.T) testDeps {
	t.Helper()
	policy, err := utils.NewRedirectPolicy("https://shop.example.com")
	require.NoError(t, err)
	store := cache.NewMemoryTokenStore()
	gen := token.NewTokenGenerator()
	return testDeps{
		store:  store,
		states: cache.NewStateTokenStore(store, gen, policy, logger.NewNopLogger()),
		tokens: gen,
	}
}

func newTestClient(t *testing.T, f *fakeLine, botPrompt string) (*LineOAuthClient, testDeps) {
	deps := newTestDeps(t)
	client := NewLineOAuthClient(LineOAuthConfig{
		ChannelID:     testChannelID,
		ChannelSecret: testChannelSecret,
		RedirectURL:   "https://shop.example.com/auth/callback",
		BotPrompt:     botPrompt,
		Endpoints:     f.endpoints(),
	}, deps.states, deps.store, deps.tokens)
	return client, deps
}
