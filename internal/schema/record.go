package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Record is one fully validated structured extraction result. A Record is
// only constructed by Schema.Validate; no partially-valid Record exists.
type Record struct {
	Schema          string   `json:"-"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Genre           []string `json:"genre"`
	PublicationYear int      `json:"publication_year"`

	// Exactly one of these carries the sentiment, per schema variant.
	SentimentPositive bool   `json:"sentiment_positive,omitempty"`
	Sentiment         string `json:"sentiment,omitempty"`
}

// SchemaError reports a parsed document that violates the schema, with the
// offending field list.
type SchemaError struct {
	Fields []string
	err    error
}

func (e *SchemaError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("schema violation (fields: %s): %v", strings.Join(e.Fields, ", "), e.err)
	}
	return fmt.Sprintf("schema violation: %v", e.err)
}

func (e *SchemaError) Unwrap() error {
	return e.err
}

// Validate checks a parsed document against the schema and projects it into a
// typed Record. The document must be a generic JSON tree (the result of
// json.Unmarshal into any) - model output is never trusted as already-typed
// data.
func (s *Schema) Validate(parsed any) (*Record, error) {
	if err := s.compiled.Validate(parsed); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, &SchemaError{Fields: offendingFields(ve), err: err}
		}
		return nil, &SchemaError{err: err}
	}

	// Schema type "object" guarantees this assertion post-validation.
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, &SchemaError{err: fmt.Errorf("document is not an object")}
	}

	rec := &Record{Schema: s.Name}
	rec.Title, _ = obj["title"].(string)
	rec.Author, _ = obj["author"].(string)
	rec.Genre = toStringSlice(obj["genre"])

	year, ok := toInt(obj["publication_year"])
	if !ok {
		return nil, &SchemaError{Fields: []string{"publication_year"}, err: fmt.Errorf("publication_year is not an integer")}
	}
	rec.PublicationYear = year

	switch s.Name {
	case "book_review":
		rec.SentimentPositive, _ = obj["sentiment_positive"].(bool)
	case "book_report":
		rec.Sentiment, _ = obj["sentiment"].(string)
	}

	return rec, nil
}

// Value renders one field of the record for the tabular sink. List-valued
// fields are rendered as a JSON array literal so rows stay re-parseable.
func (r *Record) Value(field string) string {
	switch field {
	case "title":
		return r.Title
	case "author":
		return r.Author
	case "genre":
		b, _ := json.Marshal(r.Genre)
		return string(b)
	case "publication_year":
		return strconv.Itoa(r.PublicationYear)
	case "sentiment_positive":
		return strconv.FormatBool(r.SentimentPositive)
	case "sentiment":
		return r.Sentiment
	default:
		return ""
	}
}

// SetValue parses one sink field back into the record. Inverse of Value.
func (r *Record) SetValue(field, value string) error {
	switch field {
	case "title":
		r.Title = value
	case "author":
		r.Author = value
	case "genre":
		var genre []string
		if err := json.Unmarshal([]byte(value), &genre); err != nil {
			return fmt.Errorf("invalid genre list %q: %w", value, err)
		}
		r.Genre = genre
	case "publication_year":
		year, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid publication_year %q: %w", value, err)
		}
		r.PublicationYear = year
	case "sentiment_positive":
		positive, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid sentiment_positive %q: %w", value, err)
		}
		r.SentimentPositive = positive
	case "sentiment":
		r.Sentiment = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Equal reports whether two records carry the same data.
func (r *Record) Equal(other *Record) bool {
	if r.Title != other.Title || r.Author != other.Author ||
		r.PublicationYear != other.PublicationYear ||
		r.SentimentPositive != other.SentimentPositive ||
		r.Sentiment != other.Sentiment {
		return false
	}
	if len(r.Genre) != len(other.Genre) {
		return false
	}
	for i := range r.Genre {
		if r.Genre[i] != other.Genre[i] {
			return false
		}
	}
	return true
}

// toInt accepts only lossless integer representations. Numeric strings are
// deliberately rejected.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}

// offendingFields walks a validation error tree and collects the fields that
// failed, including required properties reported only in the message.
func offendingFields(ve *jsonschema.ValidationError) []string {
	seen := make(map[string]struct{})
	var fields []string

	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if loc := strings.TrimPrefix(e.InstanceLocation, "/"); loc != "" {
				// Nested locations like genre/2 collapse to the top field.
				add(strings.SplitN(loc, "/", 2)[0])
			}
			for _, name := range missingProperties(e.Message) {
				add(name)
			}
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)

	return fields
}

// missingProperties extracts property names from messages of the form
// "missing properties: 'author', 'genre'".
func missingProperties(msg string) []string {
	const marker = "missing properties:"
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return nil
	}
	var names []string
	for _, part := range strings.Split(msg[idx+len(marker):], ",") {
		name := strings.Trim(strings.TrimSpace(part), "'\"")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
