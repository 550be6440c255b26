package handlers

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/shared/constants"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

// LiffIDSource returns the configured LIFF app ID, "" when unset.
type LiffIDSource func() string

// LiffHandler serves the in-app browser entry point under /liff.
type LiffHandler struct {
	login     liffLoginUseCase
	liffID    LiffIDSource
	redirects RedirectSanitizer
	notices   NoticeSource
	logger    logger.Interface
}

func NewLiffHandler(login liffLoginUseCase, liffID LiffIDSource, redirects RedirectSanitizer, notices NoticeSource, logger logger.Interface) *LiffHandler {
	return &LiffHandler{
		login:     login,
		liffID:    liffID,
		redirects: redirects,
		notices:   notices,
		logger:    logger,
	}
}

type liffPage struct {
	Title       string
	Notice      template.HTML
	LiffID      string
	RedirectURL string
}

type LiffLoginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	IDToken     string `json:"id_token"`
	IsFriend    *bool  `json:"is_friend"`
	Redirect    string `json:"redirect"`
}

type LiffLoginResponse struct {
	Outcome     string `json:"outcome"`
	RedirectURL string `json:"redirect_url"`
}

// Page handles GET /liff/
func (h *LiffHandler) Page(c *gin.Context) {
	liffID := h.liffID()
	if liffID == "" {
		renderErrorPage(c, apperrors.NewConfigurationError("LIFF is not configured"))
		return
	}

	page := liffPage{
		Title:       "Signing in",
		LiffID:      liffID,
		RedirectURL: h.redirects.Sanitize(c.Query("redirect")),
	}
	if h.notices != nil {
		page.Notice = template.HTML(h.notices.Notice(c.Request.Context(), setting.KeyLoginNotice))
	}
	c.HTML(http.StatusOK, "liff.html", page)
}

// Login handles POST /liff/
// The body must be sent as JSON; form encodings are refused so a plain
// cross-site form cannot reach the resolver.
func (h *LiffHandler) Login(c *gin.Context) {
	if c.ContentType() != gin.MIMEJSON {
		utils.ErrorResponseWithError(c, apperrors.NewUnsupportedMediaTypeError("expected application/json"))
		return
	}

	var req LiffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("access_token is required"))
		return
	}

	res, err := h.login.Execute(c.Request.Context(), usecases.LiffLoginCommand{
		Caller:      callerFromContext(c),
		AccessToken: req.AccessToken,
		IDToken:     req.IDToken,
		IsFriend:    req.IsFriend,
		RedirectURL: h.redirects.Sanitize(req.Redirect),
	})
	if err != nil {
		h.logger.Warnw("LIFF login failed", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := LiffLoginResponse{Outcome: string(res.Outcome)}
	switch res.Outcome {
	case usecases.OutcomeAwaitingEmail:
		resp.RedirectURL = constants.PathEmailForm + "?temp_key=" + url.QueryEscape(res.TempKey)
	case usecases.OutcomeLoggedIn:
		resp.RedirectURL = withSessionToken(h.redirects.Sanitize(res.RedirectURL), res.TransferToken)
	default:
		resp.RedirectURL = h.redirects.Sanitize(res.RedirectURL)
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
