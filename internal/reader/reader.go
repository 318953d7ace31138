// Package reader turns raw statement files into ordered text chunks
// suitable for oracle extraction.
package reader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// ErrUnsupportedFormat reports input whose shape cannot be read: an unknown
// source type, a CSV without a recognizable header row, or an unreadable PDF.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Chunk is one window of extracted text. Chunks preserve input order and are
// processed independently downstream, so each chunk carries everything the
// extractor needs.
type Chunk struct {
	Index int
	Text  string
}

// Options controls chunking.
type Options struct {
	// ChunkLines is the number of lines (CSV rows, PDF text lines) per chunk.
	ChunkLines int
}

// DefaultChunkLines matches the extraction window the oracle handles reliably.
const DefaultChunkLines = 20

func (o Options) chunkLines() int {
	if o.ChunkLines <= 0 {
		return DefaultChunkLines
	}
	return o.ChunkLines
}

// Read extracts ordered text chunks from data according to the declared
// source type.
func Read(data []byte, source domain.SourceType, opts Options) ([]Chunk, error) {
	switch source {
	case domain.SourceCSV:
		return readCSV(data, opts)
	case domain.SourcePDF:
		return readPDF(data, opts)
	default:
		return nil, fmt.Errorf("%w: source type %q", ErrUnsupportedFormat, source)
	}
}

// DetectSourceType maps a file extension (any case, leading dot optional)
// onto a source type.
func DetectSourceType(ext string) (domain.SourceType, error) {
	ext = strings.TrimPrefix(ext, ".")
	switch {
	case strings.EqualFold(ext, "pdf"):
		return domain.SourcePDF, nil
	case strings.EqualFold(ext, "csv"):
		return domain.SourceCSV, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}
