package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/shared/constants"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
)

type errorPage struct {
	Status   int
	Title    string
	Message  string
	RetryURL string
}

// pageForError maps any error to one of a fixed set of pages. Only
// conflict messages are shown verbatim; provider output never is.
func pageForError(err error) errorPage {
	retry := constants.PathAuthStart

	if pe := apperrors.GetProviderError(err); pe != nil {
		if pe.Timeout() {
			return errorPage{http.StatusGatewayTimeout, "LINE did not respond", "LINE took too long to respond. Please try again in a moment.", retry}
		}
		return errorPage{http.StatusBadGateway, "Login failed", "We could not complete the login with LINE. Please try again later.", retry}
	}

	if flowErr := apperrors.GetFlowError(err); flowErr != nil {
		switch flowErr.Type {
		case apperrors.ErrorTypeOAuthError:
			msg := constants.GetOAuthErrorMessage(constants.OAuthErrorCode(flowErr.OAuthCode))
			return errorPage{http.StatusBadRequest, "Login not completed", msg, retry}
		case apperrors.ErrorTypeTokenExpired, apperrors.ErrorTypeTokenInvalid:
			return errorPage{http.StatusGone, "Link expired", "This login link has expired or was already used. Please start again.", retry}
		}
	}

	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		return errorPage{http.StatusInternalServerError, "Something went wrong", "An unexpected error occurred. Please try again later.", retry}
	}

	switch appErr.Type {
	case apperrors.ErrorTypeConfiguration:
		return errorPage{http.StatusServiceUnavailable, "LINE login unavailable", "LINE login is not configured on this site yet.", ""}
	case apperrors.ErrorTypeCsrf:
		return errorPage{http.StatusBadRequest, "Session expired", "Your login session expired or was started in another tab. Please try again.", retry}
	case apperrors.ErrorTypeConflict:
		return errorPage{http.StatusConflict, "Account already linked", appErr.Message, ""}
	case apperrors.ErrorTypeValidation:
		return errorPage{http.StatusBadRequest, "Invalid request", appErr.Message, retry}
	case apperrors.ErrorTypeNotFound:
		return errorPage{http.StatusNotFound, "Not found", appErr.Message, ""}
	case apperrors.ErrorTypeUnauthorized:
		return errorPage{http.StatusUnauthorized, "Sign in required", "Please sign in and try again.", retry}
	case apperrors.ErrorTypeProvider:
		return errorPage{http.StatusBadGateway, "Login failed", "We could not complete the login with LINE. Please try again later.", retry}
	default:
		return errorPage{http.StatusInternalServerError, "Something went wrong", "An unexpected error occurred. Please try again later.", retry}
	}
}

func renderErrorPage(c *gin.Context, err error) {
	page := pageForError(err)
	c.HTML(page.Status, "error.html", page)
}
