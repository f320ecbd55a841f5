/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/userdir/apiserver/config"
	"github.com/userdir/apiserver/internal/handlers"
	"github.com/userdir/apiserver/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "userdir",
	Short:   "User directory API server",
	Version: handlers.APIVersion,
	Long: `userdir serves create, read, update, delete and search for user
records over HTTP, and ships the tooling around it: migrations, snapshot
exports and event tailing.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and configures logging from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, err
	}
	logging.Setup(cfg.LogLevel, cfg.Server.Debug)
	return cfg, nil
}
