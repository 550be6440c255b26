package migrate

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/orris-inc/lineconnect/internal/infrastructure/database"
	"github.com/orris-inc/lineconnect/internal/infrastructure/migration"
	"github.com/orris-inc/lineconnect/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// runner is what each subcommand gets once config and database are open.
type runner func(cmd *cobra.Command, strategy *migration.GooseStrategy, db *gorm.DB, log logger.Interface) error

func NewCommand() *cobra.Command {
	var flags bootstrap.Flags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the broker's database schema",
		Long: `Apply, roll back and inspect the embedded goose migrations for the
users, LINE identity binding and settings tables.`,
	}

	cmd.PersistentFlags().StringVarP(&flags.Env, "env", "e", "default", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	with := func(run runner) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap.LoadConfig(flags)
			if err != nil {
				return err
			}
			if err := bootstrap.OpenDatabase(cfg); err != nil {
				return err
			}
			defer database.Close()

			strategy, err := migration.NewGooseStrategy(cfg.Database.Driver, log)
			if err != nil {
				return err
			}
			return run(cmd, strategy, database.Get(), log.With("environment", flags.Env))
		}
	}

	cmd.AddCommand(newUpCommand(with), newDownCommand(with), newStatusCommand(with))
	return cmd
}

func newUpCommand(with func(runner) func(*cobra.Command, []string) error) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: with(func(cmd *cobra.Command, strategy *migration.GooseStrategy, db *gorm.DB, log logger.Interface) error {
			if dryRun {
				_, statuses, err := strategy.Status(db)
				if err != nil {
					return err
				}
				printPending(cmd.OutOrStdout(), statuses)
				return nil
			}

			if err := strategy.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Infow("schema is up to date")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	return cmd
}

func newDownCommand(with func(runner) func(*cobra.Command, []string) error) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		PreRunE: func(*cobra.Command, []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			return nil
		},
		RunE: with(func(_ *cobra.Command, strategy *migration.GooseStrategy, db *gorm.DB, log logger.Interface) error {
			if err := strategy.MigrateDown(db, steps); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			log.Infow("rolled back migrations", "steps", steps)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to roll back")
	return cmd
}

func newStatusCommand(with func(runner) func(*cobra.Command, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schema version and every known migration",
		RunE: with(func(cmd *cobra.Command, strategy *migration.GooseStrategy, db *gorm.DB, _ logger.Interface) error {
			version, statuses, err := strategy.Status(db)
			if err != nil {
				return fmt.Errorf("failed to read migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), version, statuses)
			return nil
		}),
	}
}

func printStatus(out io.Writer, version int64, statuses []migration.MigrationStatus) {
	pending := 0
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tSCRIPT")
	for _, s := range statuses {
		state := "applied"
		if !s.Applied {
			state = "pending"
			pending++
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, state, filepath.Base(s.Source))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\ncurrent version %d, %d pending\n", version, pending)
}

func printPending(out io.Writer, statuses []migration.MigrationStatus) {
	var names []string
	for _, s := range statuses {
		if !s.Applied {
			names = append(names, filepath.Base(s.Source))
		}
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "nothing to apply")
		return
	}
	for _, name := range names {
		fmt.Fprintf(out, "would apply %s\n", name)
	}
}
