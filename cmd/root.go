/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/goaltrackr/apiserver/config"
	"github.com/goaltrackr/apiserver/internal/logger"
	"github.com/spf13/cobra"
)

var cfg config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goaltrackr",
	Short: "GoalTrackr personal goal tracking API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		logger.Init(!cfg.IsProduction(), cfg.SentryDSN)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Flush()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
