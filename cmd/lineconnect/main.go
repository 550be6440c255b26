package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/lineconnect/internal/interfaces/cli/migrate"
	"github.com/orris-inc/lineconnect/internal/interfaces/cli/server"
	"github.com/orris-inc/lineconnect/internal/interfaces/cli/settings"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "lineconnect",
		Short:        "LINE Login and LIFF identity broker",
		Long:         `lineconnect links LINE accounts to local accounts through LINE Login and LIFF, with migration and settings tools.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		settings.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
