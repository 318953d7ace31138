package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dvloznov/finance-vault/internal/domain"
	"github.com/dvloznov/finance-vault/internal/fingerprint"
	"github.com/dvloznov/finance-vault/internal/logger"
	"github.com/dvloznov/finance-vault/internal/normalize"
	"github.com/dvloznov/finance-vault/internal/oracle"
	"github.com/dvloznov/finance-vault/internal/reader"
	"github.com/dvloznov/finance-vault/internal/vault"
)

// HashStep fingerprints the file bytes. Every later stage keys off the hash.
type HashStep struct{}

func (s *HashStep) Execute(ctx context.Context, state *State) error {
	if len(state.Data) == 0 {
		return fmt.Errorf("empty file %q", state.Filename)
	}
	state.FileHash = fingerprint.Sum(state.Data)
	return nil
}

// DedupStep stops the run before any oracle work when the identical file was
// ingested before.
type DedupStep struct {
	Vault Vault
}

func (s *DedupStep) Execute(ctx context.Context, state *State) error {
	seen, err := s.Vault.AlreadyIngested(ctx, state.FileHash)
	if err != nil {
		return err
	}
	if seen {
		log := logger.FromContext(ctx)
		log.Info().
			Str("file", state.Filename).
			Str("hash", state.FileHash).
			Msg("file already ingested, skipping")
		state.Status = StatusDuplicate
		return errStop
	}
	return nil
}

// ReadStep detects the source format and splits the file into chunks.
type ReadStep struct {
	ChunkLines int
}

func (s *ReadStep) Execute(ctx context.Context, state *State) error {
	source, err := reader.DetectSourceType(filepath.Ext(state.Filename))
	if err != nil {
		return err
	}
	chunks, err := reader.Read(state.Data, source, reader.Options{ChunkLines: s.ChunkLines})
	if err != nil {
		return err
	}
	state.SourceType = source
	state.Chunks = chunks
	return nil
}

// InstrumentStep asks the oracle to classify the statement's payment
// instrument from the document head. Best-effort; Unknown is acceptable.
type InstrumentStep struct {
	Extractor Extractor
}

func (s *InstrumentStep) Execute(ctx context.Context, state *State) error {
	if len(state.Chunks) == 0 {
		state.Instrument = domain.PaymentUnknown
		return nil
	}
	state.Instrument = s.Extractor.IdentifyInstrument(ctx, state.Chunks[0].Text)
	return nil
}

// ExtractStep runs oracle extraction over every chunk.
type ExtractStep struct {
	Extractor Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	hints := oracle.Hints{SourceType: state.SourceType, Instrument: state.Instrument}
	state.Results = s.Extractor.ExtractAll(ctx, state.Chunks, hints)
	return nil
}

// NormalizeStep canonicalizes extracted candidates into transactions.
// Candidates are walked in chunk order so each gets a stable position within
// the file; the position feeds identifier derivation.
type NormalizeStep struct {
	DateFormats []string
}

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	n := &normalize.Normalizer{DateFormats: s.DateFormats}

	position := 0
	for _, res := range state.Results {
		state.Dropped += res.Dropped
		if res.Err != nil {
			state.FailedChunks++
			continue
		}
		for _, c := range res.Candidates {
			txn, err := n.Candidate(c, state.FileHash, position)
			position++
			if err != nil {
				state.Dropped++
				log.Warn().Int("chunk", res.Chunk).Err(err).Msg("dropping candidate")
				continue
			}
			state.Transactions = append(state.Transactions, txn)
		}
	}

	if len(state.Chunks) > 0 && state.FailedChunks == len(state.Chunks) {
		return fmt.Errorf("extraction failed for all %d chunks of %q", len(state.Chunks), state.Filename)
	}
	return nil
}

// CategorizeStep applies the current rule set to the new transactions.
type CategorizeStep struct {
	Vault Vault
}

func (s *CategorizeStep) Execute(ctx context.Context, state *State) error {
	engine, err := s.Vault.RuleEngine(ctx)
	if err != nil {
		return err
	}
	for i := range state.Transactions {
		engine.Categorize(&state.Transactions[i])
	}
	return nil
}

// PersistStep writes the file record and its transactions in one atomic
// batch. A concurrent ingest of the same bytes can still win the race; that
// surfaces as a duplicate, not a failure.
type PersistStep struct {
	Vault Vault
	Now   func() time.Time
}

func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	file := domain.FileRecord{
		FileHash:   state.FileHash,
		Filename:   filepath.Base(state.Filename),
		SourceType: state.SourceType,
		Instrument: state.Instrument,
		IngestedAt: now().UTC(),
	}
	persisted, err := s.Vault.CommitFileAndTransactions(ctx, file, state.Transactions)
	if errors.Is(err, vault.ErrDuplicateFile) {
		state.Status = StatusDuplicate
		return errStop
	}
	if err != nil {
		return err
	}
	state.Persisted = persisted
	state.Status = StatusPersisted
	return nil
}
