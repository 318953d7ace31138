package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts plain text page by page and windows it into fixed-size
// line chunks. Oracle extraction quality degrades on very large inputs, so
// windowing bounds both prompt size and the blast radius of a malformed page.
func readPDF(data []byte, opts Options) ([]Chunk, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %v", ErrUnsupportedFormat, err)
	}

	var lines []string
	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page must not sink the document.
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: PDF contains no extractable text", ErrUnsupportedFormat)
	}
	return windowLines(lines, opts.chunkLines()), nil
}

// windowLines groups lines into consecutive fixed-size chunks, preserving
// input order.
func windowLines(lines []string, size int) []Chunk {
	var chunks []Chunk
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(lines[start:end], "\n"),
		})
	}
	return chunks
}
