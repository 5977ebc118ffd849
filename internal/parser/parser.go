// Package parser reads recipient lists from tabular (.csv) and
// line-delimited (.txt) files.
package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for recipient files whose extension is
// neither .csv nor .txt.
var ErrUnsupportedFormat = errors.New("unsupported recipient file format")

// ReadRecipients reads the recipient addresses from the given file, selecting
// the format by extension. Addresses are returned in file order, surrounding
// whitespace trimmed, empty entries dropped. No deduplication and no address
// syntax validation is performed; the transport rejects malformed addresses.
func ReadRecipients(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".txt":
		return readLines(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// readCSV reads addresses from the first column of a CSV file. The first row
// is treated as a header and skipped.
func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipient file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var recipients []string
	header := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read recipient file: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		addr := strings.TrimSpace(record[0])
		if addr == "" {
			continue
		}
		recipients = append(recipients, addr)
	}

	return recipients, nil
}

// readLines reads one address per non-empty line.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipient file: %w", err)
	}
	defer f.Close()

	var recipients []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		addr := strings.TrimSpace(scanner.Text())
		if addr == "" {
			continue
		}
		recipients = append(recipients, addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipient file: %w", err)
	}

	return recipients, nil
}
