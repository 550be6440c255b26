package constants

// OAuthErrorCode is the error parameter LINE appends to the callback URL.
type OAuthErrorCode string

const (
	OAuthErrorAccessDenied       OAuthErrorCode = "access_denied"
	OAuthErrorInvalidRequest     OAuthErrorCode = "invalid_request"
	OAuthErrorUnauthorizedClient OAuthErrorCode = "unauthorized_client"
	OAuthErrorInvalidScope       OAuthErrorCode = "invalid_scope"
	OAuthErrorServerError        OAuthErrorCode = "server_error"
	OAuthErrorLoginRequired      OAuthErrorCode = "login_required"
)

// OAuthErrorMessages maps error codes to user-facing messages. Provider
// descriptions are never shown.
var OAuthErrorMessages = map[OAuthErrorCode]string{
	OAuthErrorAccessDenied:       "You cancelled the LINE login. Try again whenever you are ready.",
	OAuthErrorInvalidRequest:     "The login request was rejected by LINE. Please try again.",
	OAuthErrorUnauthorizedClient: "This site is not allowed to use LINE Login. Please contact the site administrator.",
	OAuthErrorInvalidScope:       "This site requested permissions LINE does not allow. Please contact the site administrator.",
	OAuthErrorServerError:        "LINE encountered an error. Please try again later.",
	OAuthErrorLoginRequired:      "Please sign in to LINE and try again.",
}

const defaultOAuthErrorMessage = "LINE login could not be completed. Please try again."

// GetOAuthErrorMessage returns a user-facing message for code.
func GetOAuthErrorMessage(code OAuthErrorCode) string {
	if msg, ok := OAuthErrorMessages[code]; ok {
		return msg
	}
	return defaultOAuthErrorMessage
}
