package eventhandlers

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// SessionLogHandler writes one audit line per established session.
type SessionLogHandler struct {
	logger logger.Interface
}

func NewSessionLogHandler(logger logger.Interface) *SessionLogHandler {
	return &SessionLogHandler{logger: logger.Named("session-audit")}
}

func (h *SessionLogHandler) Handle(_ context.Context, event events.Event) error {
	e, ok := event.(*identity.SessionEstablishedEvent)
	if !ok {
		return nil
	}
	h.logger.Infow("session established",
		"event_id", e.EventID(),
		"local_user_id", e.LocalUserID,
		"uid", e.ExternalUID,
		"method", e.Method,
		"new_account", e.IsNewAccount,
		"merged", e.Merged,
	)
	return nil
}
