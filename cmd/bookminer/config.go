package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfellner/bookminer/internal/config"
	"github.com/kfellner/bookminer/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bookminer configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default config file to ~/.bookminer/config.yaml.

Fails if the file already exists; edit it in place instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		if h.ConfigExists() {
			return fmt.Errorf("config already exists at %s", h.ConfigPath())
		}

		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}

		fmt.Printf("Wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		// Keys stay out of structured output; resolve them on use instead.
		shown := *cfg
		if shown.Endpoint.APIKey != "" {
			shown.Endpoint.APIKey = "<set>"
		}
		return report.Output(shown)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(configCmd)
}
