// Package report renders run summaries and other CLI output in the
// configured structured format.
package report

import (
	"time"

	"github.com/kfellner/bookminer/internal/batch"
)

// RunReport summarizes one batch extraction run.
type RunReport struct {
	Input    string         `json:"input" yaml:"input"`
	Schema   string         `json:"schema" yaml:"schema"`
	Endpoint string         `json:"endpoint" yaml:"endpoint"`
	Model    string         `json:"model" yaml:"model"`
	Items    int            `json:"items" yaml:"items"`
	Valid    int            `json:"valid" yaml:"valid"`
	Invalid  int            `json:"invalid" yaml:"invalid"`
	Reasons  map[string]int `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	CSV      string         `json:"csv" yaml:"csv"`
	ErrorLog string         `json:"error_log,omitempty" yaml:"error_log,omitempty"`
	Duration string         `json:"duration" yaml:"duration"`
}

// NewRunReport builds a report from a completed batch result.
func NewRunReport(result *batch.Result) *RunReport {
	valid, invalid := result.Counts()
	r := &RunReport{
		Items:    len(result.Outcomes),
		Valid:    valid,
		Invalid:  invalid,
		Duration: result.Duration.Round(time.Millisecond).String(),
	}
	if invalid > 0 {
		r.Reasons = make(map[string]int)
		for _, o := range result.Invalid() {
			r.Reasons[string(o.Reason)]++
		}
	}
	return r
}
