package handlers

import (
	"context"

	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type markdownRenderer interface {
	ToHTMLSanitized(markdown string) (string, error)
}

// SettingNotices renders notice markdown stored in the settings group "notice".
type SettingNotices struct {
	settings setting.ConfigStore
	renderer markdownRenderer
	logger   logger.Interface
}

func NewSettingNotices(settings setting.ConfigStore, renderer markdownRenderer, logger logger.Interface) *SettingNotices {
	return &SettingNotices{settings: settings, renderer: renderer, logger: logger}
}

func (n *SettingNotices) Notice(ctx context.Context, key string) string {
	raw := n.settings.Get(ctx, setting.GroupNotice, key)
	if raw == "" {
		return ""
	}
	rendered, err := n.renderer.ToHTMLSanitized(raw)
	if err != nil {
		n.logger.Warnw("failed to render notice", "key", key, "error", err)
		return ""
	}
	return rendered
}
