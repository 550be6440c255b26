package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *AppError
		typ   ErrorType
		code  int
		check func(error) bool
	}{
		{"conflict", NewConflictError("account already linked, unlink first"), ErrorTypeConflict, http.StatusConflict, IsConflictError},
		{"not found", NewNotFoundError("no binding"), ErrorTypeNotFound, http.StatusNotFound, IsNotFoundError},
		{"validation", NewValidationError("invalid email"), ErrorTypeValidation, http.StatusBadRequest, IsValidationError},
		{"configuration", NewConfigurationError("LINE login is not configured"), ErrorTypeConfiguration, http.StatusServiceUnavailable, IsConfigurationError},
		{"csrf", NewCsrfError("state mismatch"), ErrorTypeCsrf, http.StatusForbidden, IsCsrfError},
		{"provider", NewProviderCommunicationError("profile fetch failed", "status 500"), ErrorTypeProvider, http.StatusBadGateway, IsProviderCommunicationError},
		{"media type", NewUnsupportedMediaTypeError("expected application/json"), ErrorTypeMediaType, http.StatusUnsupportedMediaType, func(err error) bool {
			appErr := GetAppError(err)
			return appErr != nil && appErr.Type == ErrorTypeMediaType
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	assert.Equal(t, "conflict: taken", NewConflictError("taken").Error())
	assert.Equal(t, "provider_communication_error: exchange failed (invalid_grant)",
		NewProviderCommunicationError("exchange failed", "invalid_grant").Error())
}

func TestIsChecksRejectOtherErrors(t *testing.T) {
	assert.False(t, IsConflictError(stderrors.New("plain")))
	assert.False(t, IsConflictError(nil))
	assert.False(t, IsCsrfError(NewConflictError("x")))
	assert.Nil(t, GetAppError(stderrors.New("plain")))
}

func TestFlowErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("redeem: %w", NewTokenInvalidError("session transfer token"))

	assert.True(t, IsAppError(err))
	assert.True(t, IsSuspicious(err))
	assert.False(t, IsExpectedFailure(err))
	assert.Equal(t, ErrorTypeTokenInvalid, GetAppError(err).Type)

	expired := NewTokenExpiredError("Registration")
	assert.True(t, IsExpectedFailure(expired))
	assert.False(t, IsSuspicious(expired))
	assert.Equal(t, http.StatusGone, expired.Code)

	assert.False(t, IsExpectedFailure(stderrors.New("plain")))
}

func TestNewOAuthError(t *testing.T) {
	cancelled := NewOAuthError("LINE", "authorize", "access_denied")
	assert.Equal(t, "access_denied", cancelled.OAuthCode)
	assert.True(t, cancelled.Expected)
	assert.Equal(t, "LINE returned access_denied during authorize", cancelled.Details)

	rejected := NewOAuthError("LINE", "authorize", "")
	assert.Equal(t, "unknown", rejected.OAuthCode)
	assert.False(t, IsExpectedFailure(rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.Code)
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(stderrors.New("Error 1062: Duplicate entry 'U1' for key 'idx'")))
	assert.True(t, IsDuplicateError(stderrors.New("UNIQUE constraint failed: identity_bindings.external_uid")))
	assert.False(t, IsDuplicateError(stderrors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestProviderError(t *testing.T) {
	err := NewProviderError("exchange", 400, "invalid authorization code", nil)

	assert.True(t, IsProviderCommunicationError(err))
	assert.False(t, err.Timeout())
	assert.Equal(t, "identity provider request failed", err.Message)
	assert.Contains(t, err.Error(), "invalid authorization code")
	assert.Same(t, err, GetProviderError(fmt.Errorf("callback: %w", err)))

	timedOut := NewProviderError("profile", 0, "", timeoutErr{})
	assert.True(t, timedOut.Timeout())
	assert.Equal(t, "identity provider timed out", timedOut.Message)

	var ne interface{ Timeout() bool }
	assert.True(t, stderrors.As(timedOut, &ne))
}
