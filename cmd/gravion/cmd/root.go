// Package cmd holds the gravion CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"gravion/internal/config"
	"gravion/internal/logger"
)

const version = "1.4.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "gravion",
	Short:   "Gravion stock screening and backtesting engine",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		return logger.Init(cfg.Logging, "gravion", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(sweepCmd)
}
