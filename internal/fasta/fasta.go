package fasta

// Package fasta contains minimal helpers to parse FASTA formatted data.
// Sequences are kept as written; only line breaks are removed.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single line of input, header or sequence.
var maxLineSize = 16 * 1024 * 1024

// FastaRecord represents a single FASTA record (description and sequence).
type FastaRecord struct {
	Header   string
	Sequence string
}

// ID returns the first whitespace-separated token of the header.
func (r FastaRecord) ID() string {
	if f := strings.Fields(r.Header); len(f) > 0 {
		return f[0]
	}
	return ""
}

// ParseFasta reads FASTA records from r and returns a slice of FastaRecord.
// Lines beginning with '>' denote headers; sequence lines are concatenated.
// Anything before the first header is ignored. A read error, including a line
// longer than maxLineSize, is returned instead of a truncated result.
func ParseFasta(r io.Reader) ([]FastaRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLineSize)), maxLineSize)
	var records []FastaRecord
	var current *FastaRecord
	var seq strings.Builder
	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
		}
		seq.Reset()
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, ">") {
			flush()
			current = &FastaRecord{Header: strings.TrimSpace(line[1:])}
			continue
		}
		if current != nil {
			seq.WriteString(strings.TrimSpace(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fasta: after %d records: %w", len(records), err)
	}
	flush()
	return records, nil
}

// ReadFile parses the FASTA file at path.
func ReadFile(path string) ([]FastaRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ParseFasta(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
