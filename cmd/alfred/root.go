package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctreffe/alfred/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "alfred",
	Short: "alfred runs researcher-authored experiments as resumable sessions",
	Long: `alfred takes an experiment outline (a tree of sections and pages),
walks a participant through it and durably records the session state after
every accepted step.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
}

// loadConfig resolves the --config flag, falling back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
