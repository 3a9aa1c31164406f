// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/marketplace-tools/permd/internal/config"
)

var (
	configPath string // path to the configuration directory
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "permd",
	Short: "permd resolves role based permissions for the marketplace",
	Long: `permd keeps the marketplace role catalog and user role assignments,
answers permission checks and records an audit trail of every change.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error

		cfg, err = config.ReadConfig(configPath)

		return err
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/",
		"directory containing main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
