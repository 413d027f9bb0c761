package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kfellner/bookminer/internal/batch"
	"github.com/kfellner/bookminer/internal/extract"
	"github.com/kfellner/bookminer/internal/providers"
	"github.com/kfellner/bookminer/internal/report"
	"github.com/kfellner/bookminer/internal/schema"
	"github.com/kfellner/bookminer/internal/sink"
)

var (
	extractSchema   string
	extractWorkers  int
	extractCSV      string
	extractErrLog   string
	extractPrompt   string
	extractNoWait   bool
	extractDocument bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <input-file>",
	Short: "Run batch extraction over a file of review items",
	Long: `Run batch extraction over an input file with one review per line.

Every item is sent to the configured model endpoint, validated against the
record schema, and routed to one of two sinks: valid records go to a CSV
file, failures go to an error log with the reason and raw model output.

A failed item never aborts the batch; both sinks preserve input order.

Examples:
  bookminer extract reviews.txt
  bookminer extract reviews.txt --schema book_report --workers 4
  bookminer extract reviews.txt --csv out.csv --errors out_errors.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		inputPath := args[0]

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		h, err := getHome()
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

		schemaName := cfg.Batch.Schema
		if extractSchema != "" {
			schemaName = extractSchema
		}
		s, err := schema.Get(schemaName)
		if err != nil {
			return err
		}

		var items []string
		if extractDocument {
			doc, err := batch.ReadDocument(inputPath)
			if err != nil {
				return err
			}
			items = []string{doc}
		} else {
			items, err = batch.ReadItems(inputPath)
			if err != nil {
				return err
			}
		}
		if len(items) == 0 {
			return fmt.Errorf("no items in %s", inputPath)
		}

		client, err := providers.New(cfg.Endpoint)
		if err != nil {
			return err
		}

		// A run is pointless against a dead endpoint; fail fast before the
		// first item rather than burning its retry budget.
		if !extractNoWait {
			logger.Info("waiting for endpoint", "address", cfg.Endpoint.Address, "timeout", cfg.Batch.StartupWait)
			if err := providers.WaitReady(ctx, cfg.Endpoint.Address, cfg.Batch.StartupWait); err != nil {
				return fmt.Errorf("endpoint not ready: %w", err)
			}
		}

		workers := cfg.Batch.MaxWorkers
		if extractWorkers > 0 {
			workers = extractWorkers
		}

		runner, err := batch.NewRunner(batch.Config{
			Client:         client,
			Validator:      extract.NewValidator(s),
			PromptTemplate: extractPrompt,
			// The configured cap counts retries after the first attempt.
			MaxAttempts: cfg.Endpoint.MaxRetries + 1,
			RetryDelay:  cfg.Endpoint.RetryDelay,
			MaxWorkers:  workers,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx, items)
		if err != nil {
			return err
		}

		runName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		if runName == "" {
			runName = time.Now().Format("run_20060102_150405")
		}
		csvPath := extractCSV
		if csvPath == "" {
			csvPath = h.ValidSinkPath(runName)
		}
		errPath := extractErrLog
		if errPath == "" {
			errPath = h.InvalidSinkPath(runName)
		}

		records := make([]*schema.Record, 0, len(result.Outcomes))
		for _, o := range result.Valid() {
			records = append(records, o.Record)
		}
		if err := sink.WriteRecords(csvPath, s, records); err != nil {
			return err
		}
		if err := sink.WriteFailures(errPath, result.Invalid()); err != nil {
			return err
		}

		r := report.NewRunReport(result)
		r.Input = inputPath
		r.Schema = s.Name
		r.Endpoint = cfg.Endpoint.Address
		r.Model = cfg.Endpoint.Model
		r.CSV = csvPath
		if r.Invalid > 0 {
			r.ErrorLog = errPath
		}
		return report.Output(r)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSchema, "schema", "", "record schema variant (default from config; one of: "+strings.Join(schema.Names(), ", ")+")")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "concurrent endpoint calls (default from config)")
	extractCmd.Flags().StringVar(&extractCSV, "csv", "", "CSV output path (default: ~/.bookminer/outputs/<input>.csv)")
	extractCmd.Flags().StringVar(&extractErrLog, "errors", "", "error log path (default: ~/.bookminer/outputs/<input>_errors.txt)")
	extractCmd.Flags().StringVar(&extractPrompt, "prompt", "", "prompt template with an {input} placeholder")
	extractCmd.Flags().BoolVar(&extractNoWait, "no-wait", false, "skip the startup readiness wait")
	extractCmd.Flags().BoolVar(&extractDocument, "document", false, "treat the whole file as one item instead of one item per line")

	rootCmd.AddCommand(extractCmd)
}
