// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/logger"
)

var (
	configPath string // directory holding main.toml

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "gofmg-admin",
		Short: "GoFMG-Admin is a web console for managing FortiGate devices",
		Long: `GoFMG-Admin is a web console for managing FortiGate devices through FortiManager.
It authenticates operators against local accounts or a directory and restricts
them to the modules and ports their profile allows.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory of main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and initialises the global logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}
