package eventhandlers

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/orris-inc/lineconnect/internal/domain/account"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
	"github.com/orris-inc/lineconnect/internal/infrastructure/email"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const welcomeLookupTimeout = 5 * time.Second

// NoticeRenderer turns administrator markdown into safe HTML.
type NoticeRenderer interface {
	ToHTMLSanitized(markdown string) (string, error)
}

// WelcomeEmailHandler greets accounts provisioned by a first LINE login.
type WelcomeEmailHandler struct {
	sender    email.Sender
	directory account.Directory
	settings  setting.ConfigStore
	renderer  NoticeRenderer
	siteURL   string
	logger    logger.Interface
}

func NewWelcomeEmailHandler(
	sender email.Sender,
	directory account.Directory,
	settings setting.ConfigStore,
	renderer NoticeRenderer,
	siteURL string,
	logger logger.Interface,
) *WelcomeEmailHandler {
	return &WelcomeEmailHandler{
		sender:    sender,
		directory: directory,
		settings:  settings,
		renderer:  renderer,
		siteURL:   siteURL,
		logger:    logger,
	}
}

func (h *WelcomeEmailHandler) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(*identity.SessionEstablishedEvent)
	if !ok || !e.IsNewAccount {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, welcomeLookupTimeout)
	defer cancel()

	acc, err := h.directory.GetByID(ctx, e.LocalUserID)
	if err != nil {
		return fmt.Errorf("failed to load account %d: %w", e.LocalUserID, err)
	}
	if acc == nil || acc.Email == "" {
		return nil
	}

	data := email.WelcomeData{
		DisplayName: e.DisplayName,
		Username:    acc.Username,
		SiteURL:     h.siteURL,
	}
	if h.settings != nil && h.renderer != nil {
		if notice := h.settings.Get(ctx, setting.GroupNotice, setting.KeyWelcomeNotice); notice != "" {
			rendered, err := h.renderer.ToHTMLSanitized(notice)
			if err != nil {
				h.logger.Warnw("failed to render welcome notice", "error", err)
			} else {
				data.NoticeHTML = template.HTML(rendered)
			}
		}
	}

	msg, err := email.NewWelcomeMessage(acc.Email, data)
	if err != nil {
		return err
	}
	if err := h.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	h.logger.Infow("welcome email sent", "local_user_id", acc.ID)
	return nil
}
