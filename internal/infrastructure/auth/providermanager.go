package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/infrastructure/cache"
	"github.com/orris-inc/lineconnect/internal/infrastructure/token"
	sharedConfig "github.com/orris-inc/lineconnect/internal/shared/config"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// ProviderManagerConfig holds the static parts of the provider clients.
type ProviderManagerConfig struct {
	CallbackURL string
	Endpoints   sharedConfig.LineEndpoints
	HTTPClient  *http.Client
}

// ProviderManager owns the LINE clients and rebuilds them when the login or
// LIFF settings change, so credentials can be rotated without a restart.
type ProviderManager struct {
	settings setting.ConfigStore
	cfg      ProviderManagerConfig
	states   StateIssuer
	store    cache.TokenStore
	tokens   token.TokenGenerator
	logger   logger.Interface

	mu       sync.RWMutex
	client   *LineOAuthClient
	verifier *LiffVerifier
	liffID   string
}

func NewProviderManager(
	settings setting.ConfigStore,
	cfg ProviderManagerConfig,
	states StateIssuer,
	store cache.TokenStore,
	tokens token.TokenGenerator,
	logger logger.Interface,
) *ProviderManager {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newProviderHTTPClient()
	}
	return &ProviderManager{
		settings: settings,
		cfg:      cfg,
		states:   states,
		store:    store,
		tokens:   tokens,
		logger:   logger,
	}
}

// Initialize creates clients based on current configuration.
func (m *ProviderManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initializeLocked(ctx)
	return nil
}

func (m *ProviderManager) initializeLocked(ctx context.Context) {
	channelID := m.settings.Get(ctx, setting.GroupLogin, setting.KeyChannelID)
	channelSecret := m.settings.Get(ctx, setting.GroupLogin, setting.KeyChannelSecret)
	m.liffID = m.settings.Get(ctx, setting.GroupLiff, setting.KeyLiffID)

	if channelID == "" || channelSecret == "" {
		m.client = nil
		m.verifier = nil
		m.logger.Warnw("LINE login channel not configured")
		return
	}

	m.client = NewLineOAuthClient(LineOAuthConfig{
		ChannelID:     channelID,
		ChannelSecret: channelSecret,
		RedirectURL:   m.cfg.CallbackURL,
		BotPrompt:     m.settings.Get(ctx, setting.GroupLogin, setting.KeyBotPrompt),
		Endpoints:     m.cfg.Endpoints,
		HTTPClient:    m.cfg.HTTPClient,
	}, m.states, m.store, m.tokens)
	m.verifier = NewLiffVerifier(channelID, channelSecret, m.cfg.Endpoints.APIBaseURL, m.cfg.HTTPClient, m.logger)

	m.logger.Infow("LINE login client initialized",
		"channel_id", channelID,
		"callback_url", m.cfg.CallbackURL,
		"liff_enabled", m.liffID != "",
	)
}

// OnSettingChange implements setting.ChangeSubscriber.
func (m *ProviderManager) OnSettingChange(ctx context.Context, group string, _ map[string]string) error {
	if group != setting.GroupLogin && group != setting.GroupLiff {
		return nil
	}

	m.logger.Infow("LINE configuration changed, reinitializing clients", "group", group)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.initializeLocked(ctx)
	return nil
}

// Client returns the OAuth client or a configuration error.
func (m *ProviderManager) Client() (*LineOAuthClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, apperrors.NewConfigurationError("LINE login is not configured")
	}
	return m.client, nil
}

// LiffVerifier returns the LIFF verifier or a configuration error.
func (m *ProviderManager) LiffVerifier() (*LiffVerifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.verifier == nil || m.liffID == "" {
		return nil, apperrors.NewConfigurationError("LIFF is not configured")
	}
	return m.verifier, nil
}

// LiffID returns the configured LIFF app id, "" when unset.
func (m *ProviderManager) LiffID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.liffID
}
