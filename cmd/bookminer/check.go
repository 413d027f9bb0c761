package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kfellner/bookminer/internal/providers"
	"github.com/kfellner/bookminer/internal/report"
)

var checkWait time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the model endpoint is reachable",
	Long: `Check that the configured model endpoint answers its health probe.

With --wait, polls until the endpoint is ready or the timeout elapses,
the same way a batch run waits at startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := getConfig()
		if err != nil {
			return err
		}

		status := map[string]string{
			"endpoint": cfg.Endpoint.Address,
			"type":     cfg.Endpoint.Type,
			"model":    cfg.Endpoint.Model,
		}

		if checkWait > 0 {
			err = providers.WaitReady(ctx, cfg.Endpoint.Address, checkWait)
		} else {
			err = providers.Health(ctx, cfg.Endpoint.Address)
		}
		if err != nil {
			status["health"] = "unreachable"
			_ = report.Output(status)
			return fmt.Errorf("endpoint not ready: %w", err)
		}

		status["health"] = "ok"
		return report.Output(status)
	},
}

func init() {
	checkCmd.Flags().DurationVar(&checkWait, "wait", 0, "poll until ready instead of a single probe")

	rootCmd.AddCommand(checkCmd)
}
