package reader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Column-name fragments that mark a header row as recognizable. A statement
// CSV must name at least one date-like and one amount-like column.
var (
	dateHeaderHints   = []string{"date"}
	amountHeaderHints = []string{"amount", "debit", "credit", "withdrawal", "deposit", "value"}
)

// readCSV structurally parses the CSV, validates the header row, and renders
// groups of rows back into pipe-delimited text chunks. The header is repeated
// in every chunk so field mapping survives independent chunk processing.
func readCSV(data []byte, opts Options) ([]Chunk, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // ragged statements exist in the wild
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty CSV", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %v", ErrUnsupportedFormat, err)
	}
	if !recognizableHeader(header) {
		return nil, fmt.Errorf("%w: CSV header %q has no date/amount columns", ErrUnsupportedFormat, strings.Join(header, ","))
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV row: %v", ErrUnsupportedFormat, err)
		}
		if emptyRow(record) {
			continue
		}
		rows = append(rows, record)
	}

	headerLine := strings.Join(header, " | ")
	chunkLines := opts.chunkLines()

	var chunks []Chunk
	for start := 0; start < len(rows); start += chunkLines {
		end := start + chunkLines
		if end > len(rows) {
			end = len(rows)
		}
		var b strings.Builder
		b.WriteString(headerLine)
		b.WriteByte('\n')
		for _, row := range rows[start:end] {
			b.WriteString(strings.Join(row, " | "))
			b.WriteByte('\n')
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: b.String()})
	}
	return chunks, nil
}

func recognizableHeader(header []string) bool {
	var hasDate, hasAmount bool
	for _, field := range header {
		f := strings.ToLower(strings.TrimSpace(field))
		for _, hint := range dateHeaderHints {
			if strings.Contains(f, hint) {
				hasDate = true
			}
		}
		for _, hint := range amountHeaderHints {
			if strings.Contains(f, hint) {
				hasAmount = true
			}
		}
	}
	return hasDate && hasAmount
}

func emptyRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
