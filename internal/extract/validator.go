// Package extract converts raw model responses into validated records.
package extract

import (
	"errors"

	"github.com/kfellner/bookminer/internal/schema"
)

// Reason tags why an item failed validation.
type Reason string

const (
	// ReasonMalformedOutput means the model's text contained no parseable
	// JSON document.
	ReasonMalformedOutput Reason = "malformed_output"

	// ReasonSchemaViolation means the document parsed but failed field
	// constraints.
	ReasonSchemaViolation Reason = "schema_violation"

	// ReasonEndpointUnavailable means transient endpoint failures exhausted
	// the retry cap for this item.
	ReasonEndpointUnavailable Reason = "endpoint_unavailable"
)

// maxRawContext bounds how much raw model output is retained on failures,
// enough to diagnose without ballooning the error log.
const maxRawContext = 500

// Outcome is the tagged result of validating one item: either a Record or a
// structured failure. Consumed immediately by the batch runner.
type Outcome struct {
	Input  string         `json:"input"`
	Record *schema.Record `json:"record,omitempty"`

	// Failure details (set when Record is nil)
	Reason Reason   `json:"reason,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Raw    string   `json:"raw,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

// Valid reports whether the outcome carries a validated record.
func (o Outcome) Valid() bool {
	return o.Record != nil
}

// Validator checks raw endpoint responses against a schema variant.
type Validator struct {
	schema *schema.Schema
}

// NewValidator creates a validator for the given schema.
func NewValidator(s *schema.Schema) *Validator {
	return &Validator{schema: s}
}

// Schema returns the schema this validator enforces.
func (v *Validator) Schema() *schema.Schema {
	return v.schema
}

// Validate converts one raw response into an Outcome. Parse failure yields
// MalformedOutput without touching the schema; constraint failure yields
// SchemaViolation with the offending fields. Never panics on model output.
func (v *Validator) Validate(input, raw string) Outcome {
	parsed, err := ParseModelJSON(raw)
	if err != nil {
		return Outcome{
			Input:  input,
			Reason: ReasonMalformedOutput,
			Raw:    truncateRaw(raw),
			Detail: err.Error(),
		}
	}

	rec, err := v.schema.Validate(parsed)
	if err != nil {
		outcome := Outcome{
			Input:  input,
			Reason: ReasonSchemaViolation,
			Raw:    truncateRaw(raw),
			Detail: err.Error(),
		}
		var se *schema.SchemaError
		if errors.As(err, &se) {
			outcome.Fields = se.Fields
		}
		return outcome
	}

	return Outcome{Input: input, Record: rec}
}

// Unavailable builds the terminal outcome for an item whose endpoint retries
// were exhausted.
func Unavailable(input string, err error) Outcome {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return Outcome{
		Input:  input,
		Reason: ReasonEndpointUnavailable,
		Detail: detail,
	}
}

func truncateRaw(raw string) string {
	if len(raw) <= maxRawContext {
		return raw
	}
	return raw[:maxRawContext] + "...[truncated]"
}
