package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	settingApp "github.com/orris-inc/lineconnect/internal/application/setting"
	"github.com/orris-inc/lineconnect/internal/domain/setting"
	"github.com/orris-inc/lineconnect/internal/infrastructure/database"
	"github.com/orris-inc/lineconnect/internal/infrastructure/pubsub"
	"github.com/orris-inc/lineconnect/internal/infrastructure/repository"
	"github.com/orris-inc/lineconnect/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const maskedVisibleChars = 4

var flags bootstrap.Flags

// changePublisher tells running servers to reload a group.
type changePublisher interface {
	PublishChange(ctx context.Context, group string) error
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write runtime settings",
		Long: `Manage the settings stored in the database, such as the LINE channel
credentials and page notices. Values written here override the config file
and are picked up by running servers without a restart when Redis is in use.`,
	}

	cmd.PersistentFlags().StringVarP(&flags.Env, "env", "e", "default", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(newGetCommand(), newSetCommand(), newListCommand(), newUnsetCommand())
	return cmd
}

func newGetCommand() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get <group> <key>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return printSetting(cmd.Context(), cmd.OutOrStdout(), store, args[0], args[1], reveal)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secret values in full")
	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <group> <key> <value>",
		Short: "Store a setting in the database",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, publisher, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return applySetting(cmd.Context(), cmd.OutOrStdout(), store, publisher, args[0], args[1], args[2])
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <group>",
		Short: "List the database overrides in a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return listOverrides(cmd.Context(), cmd.OutOrStdout(), store, args[0])
		},
	}
}

func newUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <group> <key>",
		Short: "Remove a database override and fall back to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, publisher, cleanup, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return unsetSetting(cmd.Context(), cmd.OutOrStdout(), store, publisher, args[0], args[1])
		},
	}
}

// openStore builds the layered store the server uses. publisher is nil when
// no Redis is configured.
func openStore(ctx context.Context) (*settingApp.LayeredStore, changePublisher, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := bootstrap.LoadConfig(flags)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := bootstrap.OpenDatabase(cfg); err != nil {
		return nil, nil, nil, err
	}

	closers := []func(){func() { _ = database.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo := repository.NewSettingEntryRepository(database.Get(), log)
	store := settingApp.NewLayeredStore(repo, settingApp.DefaultsFromConfig(cfg.Line), log)

	var publisher changePublisher
	redisClient, err := bootstrap.OpenRedis(ctx, cfg)
	switch {
	case err != nil:
		log.Warnw("running servers will not be notified of this change", "error", err)
	case redisClient != nil:
		closers = append(closers, func() { _ = redisClient.Close() })
		publisher = pubsub.NewRedisSettingChangeBus(redisClient, log)
	}

	return store, publisher, cleanup, nil
}

func printSetting(ctx context.Context, out io.Writer, store *settingApp.LayeredStore, group, key string, reveal bool) error {
	if err := setting.CheckKey(group, key); err != nil {
		return err
	}

	value, source := store.GetWithSource(ctx, group, key)
	if !reveal {
		value = displayValue(group, key, value)
	}
	fmt.Fprintf(out, "%s.%s = %q (%s)\n", group, key, value, source)
	return nil
}

func applySetting(ctx context.Context, out io.Writer, store setting.ConfigStore, publisher changePublisher, group, key, value string) error {
	if err := setting.CheckKey(group, key); err != nil {
		return err
	}

	if err := store.Set(ctx, group, key, value); err != nil {
		return fmt.Errorf("failed to store %s.%s: %w", group, key, err)
	}

	notify(ctx, publisher, group)

	fmt.Fprintf(out, "%s.%s = %q\n", group, key, displayValue(group, key, value))
	return nil
}

func listOverrides(ctx context.Context, out io.Writer, store *settingApp.LayeredStore, group string) error {
	entries, err := store.Overrides(ctx, group)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "no overrides in %s\n", group)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s = %q (rev %d, %s)\n",
			e.Path(), displayValue(e.Group(), e.Key(), e.Value()), e.Revision(), e.UpdatedAt().Format(time.RFC3339))
	}
	return nil
}

func unsetSetting(ctx context.Context, out io.Writer, store *settingApp.LayeredStore, publisher changePublisher, group, key string) error {
	if err := store.Unset(ctx, group, key); err != nil {
		if errors.Is(err, setting.ErrEntryNotFound) {
			fmt.Fprintf(out, "%s.%s has no override\n", group, key)
			return nil
		}
		return fmt.Errorf("failed to unset %s.%s: %w", group, key, err)
	}
	notify(ctx, publisher, group)

	value, _ := store.GetWithSource(ctx, group, key)
	fmt.Fprintf(out, "%s.%s reverted to %q (default)\n", group, key, displayValue(group, key, value))
	return nil
}

func notify(ctx context.Context, publisher changePublisher, group string) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishChange(ctx, group); err != nil {
		logger.Warn("setting stored but running servers were not notified", "error", err)
	}
}

// displayValue hides all but the last characters of secret values.
func displayValue(group, key, value string) string {
	if !setting.IsSecretKey(group, key) || value == "" {
		return value
	}
	if len(value) <= maskedVisibleChars {
		return "****"
	}
	return "****" + value[len(value)-maskedVisibleChars:]
}
