package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// ProviderError describes a failed call to the identity provider. Stage names
// the call ("exchange", "profile", "verify", "friendship"). Description holds
// the provider's error_description and is for logs only.
type ProviderError struct {
	*AppError
	Stage       string
	StatusCode  int
	Description string
	Cause       error
}

// NewProviderError classifies cause as a timeout when applicable so the
// caller can show a retry hint.
func NewProviderError(stage string, statusCode int, description string, cause error) *ProviderError {
	message := "identity provider request failed"
	if isTimeout(cause) {
		message = "identity provider timed out"
	}
	return &ProviderError{
		AppError:    NewProviderCommunicationError(message, stage),
		Stage:       stage,
		StatusCode:  statusCode,
		Description: description,
		Cause:       cause,
	}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s failed", e.Stage)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the taxonomy error and the transport cause.
func (e *ProviderError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.AppError, e.Cause}
	}
	return []error{e.AppError}
}

// Timeout reports whether the provider call ran out of time.
func (e *ProviderError) Timeout() bool {
	return isTimeout(e.Cause)
}

// GetProviderError extracts a ProviderError from the chain.
func GetProviderError(err error) *ProviderError {
	var pe *ProviderError
	if stderrors.As(err, &pe) {
		return pe
	}
	return nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
