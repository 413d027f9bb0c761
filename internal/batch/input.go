package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// maxLineBytes bounds a single input line; review lines can run long.
const maxLineBytes = 1024 * 1024

// ReadItems reads one logical item per line, skipping blank lines.
func ReadItems(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return items, nil
}

// ReadDocument reads a whole file as one free-form item.
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	doc := strings.TrimSpace(string(data))
	if doc == "" {
		return "", fmt.Errorf("input file is empty: %s", path)
	}
	return doc, nil
}
