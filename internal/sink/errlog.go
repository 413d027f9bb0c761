package sink

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kfellner/bookminer/internal/extract"
)

// WriteFailures writes the failure log: one entry per failed item with the
// original input, the failure reason tag, and enough raw context to diagnose.
func WriteFailures(path string, failures []extract.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create invalid sink: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, outcome := range failures {
		fmt.Fprintf(w, "input: %s\n", outcome.Input)
		fmt.Fprintf(w, "reason: %s\n", outcome.Reason)
		if len(outcome.Fields) > 0 {
			fmt.Fprintf(w, "fields: %s\n", strings.Join(outcome.Fields, ", "))
		}
		if outcome.Detail != "" {
			fmt.Fprintf(w, "detail: %s\n", outcome.Detail)
		}
		if outcome.Raw != "" {
			fmt.Fprintf(w, "raw: %s\n", outcome.Raw)
		}
		fmt.Fprintln(w, "---")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush invalid sink: %w", err)
	}
	return f.Close()
}
