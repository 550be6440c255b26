package setting

import (
	"context"
	"fmt"
	"sync"

	"github.com/orris-inc/lineconnect/internal/domain/setting"
	sharedConfig "github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const (
	SourceDatabase = "database"
	SourceDefault  = "default"
)

// Defaults holds static fallback values keyed by group then key.
type Defaults map[string]map[string]string

// DefaultsFromConfig seeds the fallback layer from the static configuration.
func DefaultsFromConfig(line sharedConfig.LineConfig) Defaults {
	return Defaults{
		setting.GroupLogin: {
			setting.KeyChannelID:     line.ChannelID,
			setting.KeyChannelSecret: line.ChannelSecret,
			setting.KeyBotPrompt:     line.BotPrompt,
		},
		setting.GroupLiff: {
			setting.KeyLiffID: line.LiffID,
		},
	}
}

// LayeredStore implements setting.ConfigStore with database values taking
// precedence over static defaults. Set notifies subscribers for hot reload.
type LayeredStore struct {
	repo     setting.EntryRepository
	defaults Defaults
	logger   logger.Interface

	subscribers []setting.ChangeSubscriber
	mu          sync.RWMutex
}

func NewLayeredStore(repo setting.EntryRepository, defaults Defaults, logger logger.Interface) *LayeredStore {
	if defaults == nil {
		defaults = Defaults{}
	}
	return &LayeredStore{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

func (s *LayeredStore) Get(ctx context.Context, group, key string) string {
	value, _ := s.GetWithSource(ctx, group, key)
	return value
}

// GetWithSource returns the effective value and the layer it came from.
func (s *LayeredStore) GetWithSource(ctx context.Context, group, key string) (string, string) {
	stored, err := s.repo.Find(ctx, group, key)
	if err != nil {
		s.logger.Warnw("failed to read setting from database, using default",
			"group", group,
			"key", key,
			"error", err,
		)
	}
	if err == nil && stored != nil && stored.IsSet() {
		return stored.Value(), SourceDatabase
	}
	return s.defaults[group][key], SourceDefault
}

func (s *LayeredStore) Set(ctx context.Context, group, key, value string) error {
	if err := setting.CheckKey(group, key); err != nil {
		return err
	}

	existing, err := s.repo.Find(ctx, group, key)
	if err != nil {
		return fmt.Errorf("failed to load setting %s.%s: %w", group, key, err)
	}

	if existing == nil {
		existing, err = setting.NewEntry(group, key, value)
		if err != nil {
			return err
		}
	} else if !existing.Replace(value) {
		return nil
	}

	if err := s.repo.Save(ctx, existing); err != nil {
		return fmt.Errorf("failed to save setting %s.%s: %w", group, key, err)
	}

	if err := s.NotifyChange(ctx, group, map[string]string{key: value}); err != nil {
		s.logger.Warnw("failed to notify setting change", "group", group, "key", key, "error", err)
	}
	return nil
}

// Unset drops the database override so the static default applies again.
func (s *LayeredStore) Unset(ctx context.Context, group, key string) error {
	if err := setting.CheckKey(group, key); err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, group, key); err != nil {
		return err
	}

	fallback := s.defaults[group][key]
	if err := s.NotifyChange(ctx, group, map[string]string{key: fallback}); err != nil {
		s.logger.Warnw("failed to notify setting change", "group", group, "key", key, "error", err)
	}
	return nil
}

// Overrides lists the database values stored for group, ordered by key.
func (s *LayeredStore) Overrides(ctx context.Context, group string) ([]*setting.Entry, error) {
	entries, err := s.repo.ListGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s settings: %w", group, err)
	}
	return entries, nil
}

// Subscribe registers a subscriber for setting changes
func (s *LayeredStore) Subscribe(subscriber setting.ChangeSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, subscriber)
}

// NotifyChange notifies all subscribers of configuration changes
func (s *LayeredStore) NotifyChange(ctx context.Context, group string, changes map[string]string) error {
	s.mu.RLock()
	subscribers := make([]setting.ChangeSubscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	var errs []error
	for _, subscriber := range subscribers {
		if err := subscriber.OnSettingChange(ctx, group, changes); err != nil {
			s.logger.Errorw("subscriber failed to handle setting change",
				"group", group,
				"subscriber", fmt.Sprintf("%T", subscriber),
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to notify %d/%d subscribers, first error: %w", len(errs), len(subscribers), errs[0])
	}
	return nil
}
