package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
	"github.com/orris-inc/lineconnect/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

type mockLiffLoginUC struct {
	cmd    usecases.LiffLoginCommand
	result *usecases.Resolution
	err    error
}

func (m *mockLiffLoginUC) Execute(ctx context.Context, cmd usecases.LiffLoginCommand) (*usecases.Resolution, error) {
	m.cmd = cmd
	return m.result, m.err
}

func newLiffRouter(t *testing.T, uc *mockLiffLoginUC, liffID string) *gin.Engine {
	t.Helper()

	policy, err := utils.NewRedirectPolicy(testSite)
	require.NoError(t, err)

	h := NewLiffHandler(uc, func() string { return liffID }, policy, stubNotices{}, testutil.NewMockLogger())
	r := testutil.NewTestRouter(Templates())
	r.GET("/liff/", h.Page)
	r.POST("/liff/", h.Login)
	return r
}

func decodeLiffResponse(t *testing.T, body []byte) LiffLoginResponse {
	t.Helper()
	var envelope testutil.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success)
	var resp LiffLoginResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &resp))
	return resp
}

func TestLiffHandler_Page(t *testing.T) {
	t.Run("renders the SDK bootstrap", func(t *testing.T) {
		r := newLiffRouter(t, &mockLiffLoginUC{}, "1650000000-abcdefgh")

		w := testutil.Do(r, http.MethodGet, "/liff/?redirect=%2Fmypage")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "1650000000-abcdefgh")
	})

	t.Run("unconfigured", func(t *testing.T) {
		r := newLiffRouter(t, &mockLiffLoginUC{}, "")

		w := testutil.Do(r, http.MethodGet, "/liff/")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestLiffHandler_Login(t *testing.T) {
	t.Run("logged in", func(t *testing.T) {
		uc := &mockLiffLoginUC{result: &usecases.Resolution{
			Outcome:       usecases.OutcomeLoggedIn,
			LocalUserID:   3,
			TransferToken: "tt-1",
			RedirectURL:   testSite + "/mypage",
		}}
		r := newLiffRouter(t, uc, "liff-id")

		friend := true
		w := testutil.DoJSON(r, http.MethodPost, "/liff/", LiffLoginRequest{
			AccessToken: "at",
			IDToken:     "idt",
			IsFriend:    &friend,
			Redirect:    "/mypage",
		})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeLiffResponse(t, w.Body.Bytes())
		assert.Equal(t, "logged_in", resp.Outcome)
		assert.Equal(t, testSite+"/mypage?session_token=tt-1", resp.RedirectURL)

		assert.Equal(t, "at", uc.cmd.AccessToken)
		assert.Equal(t, "idt", uc.cmd.IDToken)
		require.NotNil(t, uc.cmd.IsFriend)
		assert.True(t, *uc.cmd.IsFriend)
		assert.Equal(t, testSite+"/mypage", uc.cmd.RedirectURL)
	})

	t.Run("awaiting email points at the form", func(t *testing.T) {
		uc := &mockLiffLoginUC{result: &usecases.Resolution{Outcome: usecases.OutcomeAwaitingEmail, TempKey: "tk/1"}}
		r := newLiffRouter(t, uc, "liff-id")

		w := testutil.DoJSON(r, http.MethodPost, "/liff/", LiffLoginRequest{AccessToken: "at"})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeLiffResponse(t, w.Body.Bytes())
		assert.Equal(t, "/auth/email?temp_key=tk%2F1", resp.RedirectURL)
	})

	t.Run("missing access token", func(t *testing.T) {
		uc := &mockLiffLoginUC{}
		r := newLiffRouter(t, uc, "liff-id")

		w := testutil.DoJSON(r, http.MethodPost, "/liff/", map[string]string{"id_token": "x"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, uc.cmd.AccessToken)
	})

	t.Run("non-JSON body is refused", func(t *testing.T) {
		uc := &mockLiffLoginUC{}
		r := testutil.NewTestRouter(nil)
		policy, err := utils.NewRedirectPolicy(testSite)
		require.NoError(t, err)
		h := NewLiffHandler(uc, func() string { return "liff-id" }, policy, stubNotices{}, testutil.NewMockLogger())
		r.POST("/liff/", testutil.WithUser(7), h.Login)

		req := httptest.NewRequest(http.MethodPost, "/liff/", strings.NewReader(`{"access_token":"other-account","x":"="}`))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Empty(t, uc.cmd.AccessToken)
	})

	t.Run("rejected token", func(t *testing.T) {
		uc := &mockLiffLoginUC{err: &auth.LiffError{
			AppError: apperrors.NewUnauthorizedError("LINE access token rejected"),
			Kind:     auth.LiffErrorVerification,
		}}
		r := newLiffRouter(t, uc, "liff-id")

		w := testutil.DoJSON(r, http.MethodPost, "/liff/", LiffLoginRequest{AccessToken: "stolen"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var envelope testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &envelope))
		assert.False(t, envelope.Success)
	})
}
