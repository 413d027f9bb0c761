package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema declares the shape of one extracted Record: required fields, their
// types, and value constraints. Validation is strict; in particular a numeric
// string is never coerced to an integer, so invalid data cannot reach the
// valid sink.
type Schema struct {
	Name     string   // Variant name (e.g., "book_review")
	Fields   []string // Declared field order, used for sink headers
	doc      json.RawMessage
	compiled *jsonschema.Schema
}

// registry holds all schema variants.
// The two variants reflect the two sentiment policies: a boolean flag
// (book_review) and a free-text field (book_report).
var registry = []Schema{
	{
		Name:   "book_review",
		Fields: []string{"title", "author", "genre", "publication_year", "sentiment_positive"},
	},
	{
		Name:   "book_report",
		Fields: []string{"title", "author", "genre", "publication_year", "sentiment"},
	},
}

// Get returns a compiled schema variant by name.
func Get(name string) (*Schema, error) {
	for _, s := range registry {
		if s.Name != name {
			continue
		}

		filename := fmt.Sprintf("schemas/%s.json", s.Name)
		content, err := schemaFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", s.Name, err)
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(filename, bytes.NewReader(content)); err != nil {
			return nil, fmt.Errorf("failed to load schema %s: %w", s.Name, err)
		}
		compiled, err := compiler.Compile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", s.Name, err)
		}

		return &Schema{
			Name:     s.Name,
			Fields:   append([]string(nil), s.Fields...),
			doc:      content,
			compiled: compiled,
		}, nil
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

// All returns every schema variant.
func All() ([]*Schema, error) {
	schemas := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		compiled, err := Get(s.Name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, compiled)
	}
	return schemas, nil
}

// Names lists the registered variant names.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	return names
}

// Descriptor returns the machine-readable schema document, used to steer the
// endpoint's output format.
func (s *Schema) Descriptor() json.RawMessage {
	return s.doc
}
