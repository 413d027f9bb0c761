// Package sink writes batch outcomes to their destination files: a tabular
// valid sink and a line-oriented failure log.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/kfellner/bookminer/internal/schema"
)

// WriteRecords writes validated records to a CSV file. The header row is the
// schema's declared field order; one row per record, in the order given.
func WriteRecords(path string, s *schema.Schema, records []*schema.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create valid sink: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.Fields); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(s.Fields))
	for _, rec := range records {
		for i, field := range s.Fields {
			row[i] = rec.Value(field)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush valid sink: %w", err)
	}
	return f.Close()
}

// ReadRecords re-parses a valid sink written by WriteRecords, reconstructing
// the records using the schema's field order.
func ReadRecords(path string, s *schema.Schema) ([]*schema.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open valid sink: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read valid sink: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("valid sink has no header row")
	}

	header := rows[0]
	if len(header) != len(s.Fields) {
		return nil, fmt.Errorf("header has %d columns, schema declares %d", len(header), len(s.Fields))
	}
	for i, field := range s.Fields {
		if header[i] != field {
			return nil, fmt.Errorf("header column %d is %q, expected %q", i, header[i], field)
		}
	}

	records := make([]*schema.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := &schema.Record{Schema: s.Name}
		for i, field := range s.Fields {
			if err := rec.SetValue(field, row[i]); err != nil {
				return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
