package handlers

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/shared/constants"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
	"github.com/orris-inc/lineconnect/internal/shared/utils"
)

// IdentityHandler serves the LINE Login browser flow under /auth.
type IdentityHandler struct {
	initiate  initiateLoginUseCase
	callback  handleCallbackUseCase
	resolver  pendingResolver
	unlink    unlinkUseCase
	ownerKeys OwnerKeyDeriver
	redirects RedirectSanitizer
	notices   NoticeSource
	logger    logger.Interface
}

func NewIdentityHandler(
	initiate initiateLoginUseCase,
	callback handleCallbackUseCase,
	resolver pendingResolver,
	unlink unlinkUseCase,
	ownerKeys OwnerKeyDeriver,
	redirects RedirectSanitizer,
	notices NoticeSource,
	logger logger.Interface,
) *IdentityHandler {
	return &IdentityHandler{
		initiate:  initiate,
		callback:  callback,
		resolver:  resolver,
		unlink:    unlink,
		ownerKeys: ownerKeys,
		redirects: redirects,
		notices:   notices,
		logger:    logger,
	}
}

type emailFormPage struct {
	Title       string
	Notice      template.HTML
	DisplayName string
	TempKey     string
	Nonce       string
	Email       string
	Error       string
}

type emailSubmitForm struct {
	TempKey string `form:"temp_key"`
	Nonce   string `form:"nonce"`
	Email   string `form:"email"`
}

// Start handles GET /auth/
func (h *IdentityHandler) Start(c *gin.Context) {
	result, err := h.initiate.Execute(c.Request.Context(), usecases.InitiateLoginCommand{
		OwnerKey:     h.ownerKey(c),
		RedirectURL:  c.Query("redirect"),
		ForceConsent: c.Query("consent") == "1",
		QRFirst:      c.Query("qr") == "1",
	})
	if err != nil {
		h.logger.Warnw("failed to start LINE login", "error", err)
		renderErrorPage(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.AuthURL)
}

// Callback handles GET /auth/callback
func (h *IdentityHandler) Callback(c *gin.Context) {
	res, err := h.callback.Execute(c.Request.Context(), usecases.HandleCallbackCommand{
		OwnerKey:                 h.ownerKey(c),
		Caller:                   callerFromContext(c),
		Code:                     c.Query("code"),
		State:                    c.Query("state"),
		ProviderError:            c.Query("error"),
		ProviderErrorDescription: c.Query("error_description"),
	})
	if err != nil {
		h.logError("LINE callback failed", err)
		renderErrorPage(c, err)
		return
	}

	h.respond(c, res)
}

// EmailForm handles GET /auth/email and re-renders the form for a live registration.
func (h *IdentityHandler) EmailForm(c *gin.Context) {
	pending, err := h.resolver.PendingRegistration(c.Request.Context(), c.Query("temp_key"))
	if err != nil {
		renderErrorPage(c, err)
		return
	}

	h.renderEmailForm(c, http.StatusOK, emailFormPage{
		DisplayName: pending.Profile.DisplayName,
		TempKey:     pending.TempKey,
		Nonce:       pending.Nonce,
	})
}

// SubmitEmail handles POST /auth/email-submit
func (h *IdentityHandler) SubmitEmail(c *gin.Context) {
	var form emailSubmitForm
	if err := c.ShouldBind(&form); err != nil {
		renderErrorPage(c, apperrors.NewValidationError("invalid form submission"))
		return
	}

	res, err := h.resolver.ResumeWithEmail(c.Request.Context(), usecases.ResumeCommand{
		TempKey: form.TempKey,
		Nonce:   form.Nonce,
		Email:   form.Email,
	})
	if err != nil {
		if apperrors.IsValidationError(err) {
			h.renderEmailForm(c, http.StatusUnprocessableEntity, emailFormPage{
				TempKey: form.TempKey,
				Nonce:   form.Nonce,
				Email:   form.Email,
				Error:   apperrors.GetAppError(err).Message,
			})
			return
		}
		h.logError("email submission failed", err)
		renderErrorPage(c, err)
		return
	}

	h.respond(c, res)
}

// Unlink handles POST /auth/unlink
func (h *IdentityHandler) Unlink(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		renderErrorPage(c, apperrors.NewUnauthorizedError("sign in required"))
		return
	}

	if err := h.unlink.Execute(c.Request.Context(), userID); err != nil {
		renderErrorPage(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, h.redirects.Sanitize(c.PostForm("redirect")))
}

// respond turns a resolution into the next browser step.
func (h *IdentityHandler) respond(c *gin.Context, res *usecases.Resolution) {
	switch res.Outcome {
	case usecases.OutcomeAwaitingEmail:
		h.renderEmailForm(c, http.StatusOK, emailFormPage{
			TempKey: res.TempKey,
			Nonce:   res.Nonce,
		})
	case usecases.OutcomeLoggedIn:
		c.Redirect(http.StatusFound, withSessionToken(h.redirects.Sanitize(res.RedirectURL), res.TransferToken))
	default:
		c.Redirect(http.StatusFound, h.redirects.Sanitize(res.RedirectURL))
	}
}

func (h *IdentityHandler) renderEmailForm(c *gin.Context, status int, page emailFormPage) {
	page.Title = "One more step"
	if h.notices != nil {
		page.Notice = template.HTML(h.notices.Notice(c.Request.Context(), setting.KeyEmailNotice))
	}
	c.HTML(status, "email.html", page)
}

func (h *IdentityHandler) ownerKey(c *gin.Context) string {
	return ownerKeyFor(c, h.ownerKeys)
}

func (h *IdentityHandler) logError(msg string, err error) {
	if apperrors.IsExpectedFailure(err) {
		return
	}
	if apperrors.IsConflictError(err) || apperrors.IsCsrfError(err) || apperrors.IsValidationError(err) {
		h.logger.Infow(msg, "error", err)
		return
	}
	h.logger.Errorw(msg, "error", err)
}

func ownerKeyFor(c *gin.Context, keys OwnerKeyDeriver) string {
	if userID, ok := authenticatedUserID(c); ok {
		return keys.ForUser(userID)
	}
	return keys.ForAnonymous(c.GetString(constants.ContextKeyAnonymousID))
}

func authenticatedUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok && id != 0
}

func callerFromContext(c *gin.Context) identity.CallerContext {
	if userID, ok := authenticatedUserID(c); ok {
		return identity.AuthenticatedCaller(userID)
	}
	return identity.AnonymousCaller()
}

// withSessionToken appends the transfer token to an already sanitized URL.
func withSessionToken(target, token string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(utils.SessionTokenParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}
