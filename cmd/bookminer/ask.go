package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kfellner/bookminer/internal/batch"
	"github.com/kfellner/bookminer/internal/extract"
	"github.com/kfellner/bookminer/internal/providers"
	"github.com/kfellner/bookminer/internal/report"
	"github.com/kfellner/bookminer/internal/schema"
)

var (
	askSchema string
	askRaw    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <review text>",
	Short: "Extract a single record from one review",
	Long: `Extract a single structured record from one review given on the command
line. Useful for trying out a model or schema before a batch run.

Examples:
  bookminer ask "I loved Dune, Herbert's 1965 sci-fi epic."
  bookminer ask --raw "..."   # print the unvalidated model output`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		item := strings.Join(args, " ")

		cfg, err := getConfig()
		if err != nil {
			return err
		}

		schemaName := cfg.Batch.Schema
		if askSchema != "" {
			schemaName = askSchema
		}
		s, err := schema.Get(schemaName)
		if err != nil {
			return err
		}

		client, err := providers.New(cfg.Endpoint)
		if err != nil {
			return err
		}

		result, err := client.Chat(ctx, &providers.ChatRequest{
			Prompt: strings.ReplaceAll(batchPromptTemplate(), "{input}", item),
			Format: s.Descriptor(),
		})
		if err != nil {
			return err
		}

		if askRaw {
			fmt.Println(result.Content)
			return nil
		}

		outcome := extract.NewValidator(s).Validate(item, result.Content)
		if !outcome.Valid() {
			return fmt.Errorf("model output invalid (%s): %s", outcome.Reason, outcome.Detail)
		}
		return report.Output(outcome.Record)
	},
}

func batchPromptTemplate() string {
	if extractPrompt != "" {
		return extractPrompt
	}
	return batch.DefaultPromptTemplate
}

func init() {
	askCmd.Flags().StringVar(&askSchema, "schema", "", "record schema variant (default from config)")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the raw model output without validation")

	rootCmd.AddCommand(askCmd)
}
