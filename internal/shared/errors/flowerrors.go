package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	ErrorTypeTokenExpired ErrorType = "token_expired"
	ErrorTypeTokenInvalid ErrorType = "token_invalid"
	ErrorTypeOAuthError   ErrorType = "oauth_error"
)

// oauthCodeCancelled is what LINE sends when the visitor backs out of the
// consent screen.
const oauthCodeCancelled = "access_denied"

// FlowError is a login flow failure the visitor recovers from by starting
// over. Expected failures are routine (a stale link, a cancelled consent)
// and stay out of the error log. Suspicious ones hint at replay or tampering.
type FlowError struct {
	*AppError
	OAuthCode  string
	Expected   bool
	Suspicious bool
}

func (e *FlowError) Error() string {
	return e.AppError.Error()
}

func (e *FlowError) Unwrap() error {
	return e.AppError
}

// NewTokenExpiredError covers single-use tokens that outlived their TTL or
// were already consumed by a concurrent request.
func NewTokenExpiredError(what string) *FlowError {
	return &FlowError{
		AppError: &AppError{
			Type:    ErrorTypeTokenExpired,
			Message: fmt.Sprintf("%s has expired", what),
			Code:    http.StatusGone,
			Details: "Please start the login again",
		},
		Expected: true,
	}
}

func NewTokenInvalidError(what string) *FlowError {
	return &FlowError{
		AppError: &AppError{
			Type:    ErrorTypeTokenInvalid,
			Message: fmt.Sprintf("Invalid %s", what),
			Code:    http.StatusUnauthorized,
			Details: "Token is invalid or has been used",
		},
		Suspicious: true,
	}
}

// NewOAuthError wraps the error parameter the provider appended to the
// callback. code is kept verbatim for message lookup.
func NewOAuthError(provider, stage, code string) *FlowError {
	if code == "" {
		code = "unknown"
	}
	return &FlowError{
		AppError: &AppError{
			Type:    ErrorTypeOAuthError,
			Message: fmt.Sprintf("%s login failed", provider),
			Code:    http.StatusBadRequest,
			Details: fmt.Sprintf("%s returned %s during %s", provider, code, stage),
		},
		OAuthCode: code,
		Expected:  code == oauthCodeCancelled,
	}
}

func GetFlowError(err error) *FlowError {
	var flowErr *FlowError
	if stderrors.As(err, &flowErr) {
		return flowErr
	}
	return nil
}

// IsExpectedFailure reports whether err is routine enough to skip the error
// log. Errors outside the login flow are never expected.
func IsExpectedFailure(err error) bool {
	if flowErr := GetFlowError(err); flowErr != nil {
		return flowErr.Expected
	}
	return false
}

func IsSuspicious(err error) bool {
	if flowErr := GetFlowError(err); flowErr != nil {
		return flowErr.Suspicious
	}
	return false
}
