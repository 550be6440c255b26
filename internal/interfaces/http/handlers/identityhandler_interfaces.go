package handlers

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
)

type initiateLoginUseCase interface {
	Execute(ctx context.Context, cmd usecases.InitiateLoginCommand) (*usecases.InitiateLoginResult, error)
}

type handleCallbackUseCase interface {
	Execute(ctx context.Context, cmd usecases.HandleCallbackCommand) (*usecases.Resolution, error)
}

type liffLoginUseCase interface {
	Execute(ctx context.Context, cmd usecases.LiffLoginCommand) (*usecases.Resolution, error)
}

type unlinkUseCase interface {
	Execute(ctx context.Context, localUserID uint64) error
}

type pendingResolver interface {
	ResumeWithEmail(ctx context.Context, cmd usecases.ResumeCommand) (*usecases.Resolution, error)
	PendingRegistration(ctx context.Context, tempKey string) (*identity.PendingRegistration, error)
}

// OwnerKeyDeriver scopes state tokens to a session.
type OwnerKeyDeriver interface {
	ForUser(localUserID uint64) string
	ForAnonymous(cookieID string) string
}

// RedirectSanitizer confines redirect targets to the site origin.
type RedirectSanitizer interface {
	Sanitize(raw string) string
}

// NoticeSource supplies administrator-authored page notices as safe HTML.
type NoticeSource interface {
	Notice(ctx context.Context, key string) string
}
