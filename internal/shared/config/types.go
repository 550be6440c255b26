package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	SiteURL string `mapstructure:"site_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	Debug      bool   `mapstructure:"debug"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TokenStoreConfig selects the backend for short-lived tokens.
// "memory" is only safe for single-instance deployments.
type TokenStoreConfig struct {
	Driver string `mapstructure:"driver"`
	Prefix string `mapstructure:"prefix"`
}

type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	SessionExpMinutes int    `mapstructure:"session_exp_minutes"`
}

func (j JWTConfig) SessionTTL() time.Duration {
	return time.Duration(j.SessionExpMinutes) * time.Minute
}

type CookieConfig struct {
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

type AuthConfig struct {
	ServerSecret string       `mapstructure:"server_secret"`
	JWT          JWTConfig    `mapstructure:"jwt"`
	Cookie       CookieConfig `mapstructure:"cookie"`
}

// LineEndpoints are overridable so the client can be pointed at a stub server.
type LineEndpoints struct {
	AuthURL    string `mapstructure:"auth_url"`
	TokenURL   string `mapstructure:"token_url"`
	APIBaseURL string `mapstructure:"api_base_url"`
}

type LineConfig struct {
	ChannelID     string        `mapstructure:"channel_id"`
	ChannelSecret string        `mapstructure:"channel_secret"`
	LiffID        string        `mapstructure:"liff_id"`
	BotPrompt     string        `mapstructure:"bot_prompt"`
	Endpoints     LineEndpoints `mapstructure:"endpoints"`
}

type LegacySourceConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Table       string `mapstructure:"table"`
	ProviderTag string `mapstructure:"provider_tag"`
}

type IdentityConfig struct {
	MergeRequiresVerifiedEmail bool               `mapstructure:"merge_requires_verified_email"`
	UsernamePrefix             string             `mapstructure:"username_prefix"`
	NextendLegacy              LegacySourceConfig `mapstructure:"nextend_legacy"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

func (e EmailConfig) IsConfigured() bool {
	return e.SMTPHost != "" && e.FromAddress != ""
}
