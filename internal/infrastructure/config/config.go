package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/lineconnect/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	TokenStore sharedConfig.TokenStoreConfig `mapstructure:"token_store"`
	Auth       sharedConfig.AuthConfig       `mapstructure:"auth"`
	Line       sharedConfig.LineConfig       `mapstructure:"line"`
	Identity   sharedConfig.IdentityConfig   `mapstructure:"identity"`
	Email      sharedConfig.EmailConfig      `mapstructure:"email"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// configPath may be empty, in which case the conventional locations are searched.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("LINECONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !asNotFound(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func (c *Config) validate() error {
	if c.Server.SiteURL == "" {
		return fmt.Errorf("server.site_url is required")
	}
	if c.Server.Mode == "release" && c.Auth.ServerSecret == "change-me-in-production" {
		return fmt.Errorf("auth.server_secret must be set in release mode")
	}
	switch c.TokenStore.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported token_store.driver %q", c.TokenStore.Driver)
	}
	return nil
}

func asNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	nf, ok := err.(viper.ConfigFileNotFoundError)
	if ok {
		*target = nf
	}
	return ok
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.site_url", "http://localhost:8080")

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "lineconnect_dev")
	v.SetDefault("database.sqlite_path", "lineconnect.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("token_store.driver", "redis")
	v.SetDefault("token_store.prefix", "lineconnect:")

	// Auth defaults
	v.SetDefault("auth.server_secret", "change-me-in-production")
	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.session_exp_minutes", 60*24*14)
	v.SetDefault("auth.cookie.domain", "")
	v.SetDefault("auth.cookie.path", "/")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")

	// LINE defaults (credentials are normally managed through the settings table)
	v.SetDefault("line.channel_id", "")
	v.SetDefault("line.channel_secret", "")
	v.SetDefault("line.liff_id", "")
	v.SetDefault("line.bot_prompt", "")
	v.SetDefault("line.endpoints.auth_url", "https://access.line.me/oauth2/v2.1/authorize")
	v.SetDefault("line.endpoints.token_url", "https://api.line.me/oauth2/v2.1/token")
	v.SetDefault("line.endpoints.api_base_url", "https://api.line.me")

	// Identity defaults
	v.SetDefault("identity.merge_requires_verified_email", true)
	v.SetDefault("identity.username_prefix", "line_")
	v.SetDefault("identity.nextend_legacy.enabled", false)
	v.SetDefault("identity.nextend_legacy.table", "wp_social_users")
	v.SetDefault("identity.nextend_legacy.provider_tag", "line")

	// Email defaults
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.smtp_user", "")
	v.SetDefault("email.smtp_password", "")
	v.SetDefault("email.from_address", "")
	v.SetDefault("email.from_name", "LINE Connect")
}
