// Package bootstrap holds the startup steps shared by the CLI commands.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/lineconnect/internal/infrastructure/config"
	"github.com/orris-inc/lineconnect/internal/infrastructure/database"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const redisPingTimeout = 3 * time.Second

// Flags are the persistent flags every command accepts.
type Flags struct {
	Env        string
	ConfigPath string
}

// LoadConfig reads the configuration and initializes the process logger.
func LoadConfig(flags Flags) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(MapEnvToMode(flags.Env), flags.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// OpenDatabase initializes the process-wide database handle.
func OpenDatabase(cfg *config.Config) error {
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// OpenRedis connects when the token store uses Redis and returns nil
// otherwise.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.TokenStore.Driver != "redis" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	return client, nil
}

// MapEnvToMode converts a deployment environment name into a gin mode.
// "default" keeps the mode from the config file.
func MapEnvToMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "development", "dev", "debug":
		return "debug"
	case "test", "testing":
		return "test"
	default:
		return "default"
	}
}
