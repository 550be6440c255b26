package setting

import "context"

// Setting groups and keys read by the broker.
const (
	GroupLogin       = "login"
	KeyChannelID     = "channel_id"
	KeyChannelSecret = "channel_secret"
	KeyBotPrompt     = "bot_prompt"

	GroupLiff = "liff"
	KeyLiffID = "liff_id"

	GroupNotice      = "notice"
	KeyLoginNotice   = "login_page"
	KeyEmailNotice   = "email_form"
	KeyWelcomeNotice = "welcome"
)

// ConfigStore is the runtime key/value configuration. Get returns "" for
// unknown keys.
type ConfigStore interface {
	Get(ctx context.Context, group, key string) string
	Set(ctx context.Context, group, key, value string) error
}

// EntryRepository persists the database layer of the ConfigStore. Find
// returns nil, nil for a missing entry.
type EntryRepository interface {
	Find(ctx context.Context, group, key string) (*Entry, error)
	ListGroup(ctx context.Context, group string) ([]*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	Remove(ctx context.Context, group, key string) error
}

// ChangeSubscriber is notified after a group's values change.
type ChangeSubscriber interface {
	OnSettingChange(ctx context.Context, group string, changes map[string]string) error
}

// IsSecretKey reports whether a value must never be printed in full.
func IsSecretKey(group, key string) bool {
	return group == GroupLogin && key == KeyChannelSecret
}
