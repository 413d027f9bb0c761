package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfellner/bookminer/internal/config"
	"github.com/kfellner/bookminer/internal/home"
	"github.com/kfellner/bookminer/internal/report"
	"github.com/kfellner/bookminer/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "bookminer",
	Short: "Batch extraction of structured book records from free-form reviews",
	Long: `Bookminer turns free-form book reviews into structured records using a
locally hosted language model.

Each input item is sent to the model endpoint, the response is parsed and
validated against a record schema, and the results are routed to two sinks:
a CSV file for valid records and an error log for everything else.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookminer/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bookminer home directory (default: ~/.bookminer)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		report.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// getConfig loads configuration from file, environment and defaults.
func getConfig() (*config.Config, error) {
	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cm.Get(), nil
}
