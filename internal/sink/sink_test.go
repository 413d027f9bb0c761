package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kfellner/bookminer/internal/extract"
	"github.com/kfellner/bookminer/internal/schema"
)

func testRecords() []*schema.Record {
	return []*schema.Record{
		{
			Schema:            "book_review",
			Title:             "Pride and Prejudice",
			Author:            "Jane Austen",
			Genre:             []string{"romance", "classic"},
			PublicationYear:   1813,
			SentimentPositive: true,
		},
		{
			Schema:            "book_review",
			Title:             "1984",
			Author:            "George Orwell",
			Genre:             []string{"dystopian"},
			PublicationYear:   1949,
			SentimentPositive: false,
		},
	}
}

func TestWriteRecords(t *testing.T) {
	s, err := schema.Get("book_review")
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteRecords(path, s, testRecords()); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read sink: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "title,author,genre,publication_year,sentiment_positive" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Pride and Prejudice") {
		t.Errorf("row order not preserved: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"[""romance"",""classic""]"`) {
		t.Errorf("genre not rendered as list literal: %s", lines[1])
	}
}

func TestRoundTrip(t *testing.T) {
	s, err := schema.Get("book_review")
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	records := testRecords()
	if err := WriteRecords(path, s, records); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	restored, err := ReadRecords(path, s)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(restored) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(restored))
	}
	for i := range records {
		if !records[i].Equal(restored[i]) {
			t.Errorf("record %d mismatch: %+v != %+v", i, records[i], restored[i])
		}
	}
}

func TestReadRecords_HeaderMismatch(t *testing.T) {
	s, err := schema.Get("book_review")
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("wrong,header\na,b\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := ReadRecords(path, s); err == nil {
		t.Error("expected error for mismatched header")
	}
}

func TestWriteFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.txt")
	failures := []extract.Outcome{
		{
			Input:  "some review text",
			Reason: extract.ReasonSchemaViolation,
			Fields: []string{"author", "publication_year"},
			Raw:    `{"title": "X"}`,
			Detail: "missing properties",
		},
		{
			Input:  "another review",
			Reason: extract.ReasonEndpointUnavailable,
			Detail: "connection refused",
		},
	}

	if err := WriteFailures(path, failures); err != nil {
		t.Fatalf("WriteFailures() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"input: some review text",
		"reason: schema_violation",
		"fields: author, publication_year",
		"reason: endpoint_unavailable",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("failure log missing %q", want)
		}
	}
	if got := strings.Count(content, "---"); got != 2 {
		t.Errorf("expected 2 entry separators, got %d", got)
	}
}

func TestWriteFailures_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.txt")
	if err := WriteFailures(path, nil); err != nil {
		t.Fatalf("WriteFailures() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty log, got %q", data)
	}
}
