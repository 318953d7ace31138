// Package pipeline wires ingestion end to end: fingerprint, dedup, read,
// extract, normalize, categorize, persist. Each stage is a Step over shared
// State so individual stages stay testable in isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-vault/internal/domain"
	"github.com/dvloznov/finance-vault/internal/oracle"
	"github.com/dvloznov/finance-vault/internal/reader"
)

// Status is the terminal outcome of one ingestion run.
type Status string

const (
	StatusPersisted Status = "PERSISTED"
	StatusDuplicate Status = "DUPLICATE"
	StatusFailed    Status = "FAILED"
)

// errStop short-circuits the remaining steps without reporting failure.
// The duplicate check uses it: an already-ingested file is a no-op.
var errStop = errors.New("pipeline: stop")

// State is the shared state threaded through the steps of one run.
type State struct {
	Filename string
	Data     []byte

	FileHash   string
	SourceType domain.SourceType
	Instrument domain.PaymentMethod
	Chunks     []reader.Chunk
	Results    []oracle.ChunkResult

	Transactions []domain.Transaction

	Status       Status
	Persisted    int
	Dropped      int
	FailedChunks int
}

// Report summarizes one ingestion run for the caller.
type Report struct {
	Status     Status
	FileHash   string
	Filename   string
	Instrument domain.PaymentMethod

	Extracted    int // candidates that survived normalization
	Persisted    int // rows actually written (repeats within the file skip)
	Dropped      int // candidates discarded during extraction or normalization
	FailedChunks int // chunks that produced nothing even after retry
}

func (s *State) report() Report {
	return Report{
		Status:       s.Status,
		FileHash:     s.FileHash,
		Filename:     s.Filename,
		Instrument:   s.Instrument,
		Extracted:    len(s.Transactions),
		Persisted:    s.Persisted,
		Dropped:      s.Dropped,
		FailedChunks: s.FailedChunks,
	}
}

// Step is a single stage of the ingestion pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially. A step returning errStop ends the run
// without error; any other error aborts it.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			state.Status = StatusFailed
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}

// Ingestor runs the standard ingestion pipeline against a vault and an
// extraction oracle.
type Ingestor struct {
	Vault     Vault
	Extractor Extractor

	// ChunkLines overrides the reading chunk size; zero means the default.
	ChunkLines int
	// DateFormats overrides the accepted date layouts; nil means the default.
	DateFormats []string
	// Now stamps file records; nil means time.Now.
	Now func() time.Time
}

// IngestFile runs one file through the full pipeline and reports the outcome.
// The returned Report is valid even when err is non-nil.
func (ing *Ingestor) IngestFile(ctx context.Context, filename string, data []byte) (Report, error) {
	state := &State{Filename: filename, Data: data}
	p := NewPipeline(
		&HashStep{},
		&DedupStep{Vault: ing.Vault},
		&ReadStep{ChunkLines: ing.ChunkLines},
		&InstrumentStep{Extractor: ing.Extractor},
		&ExtractStep{Extractor: ing.Extractor},
		&NormalizeStep{DateFormats: ing.DateFormats},
		&CategorizeStep{Vault: ing.Vault},
		&PersistStep{Vault: ing.Vault, Now: ing.Now},
	)
	err := p.Execute(ctx, state)
	return state.report(), err
}
