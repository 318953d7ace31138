package pipeline

import (
	"context"

	"github.com/dvloznov/finance-vault/internal/domain"
	"github.com/dvloznov/finance-vault/internal/oracle"
	"github.com/dvloznov/finance-vault/internal/reader"
	"github.com/dvloznov/finance-vault/internal/rules"
)

// Vault is the persistence surface the pipeline needs.
type Vault interface {
	AlreadyIngested(ctx context.Context, fileHash string) (bool, error)
	RuleEngine(ctx context.Context) (*rules.Engine, error)
	CommitFileAndTransactions(ctx context.Context, file domain.FileRecord, txns []domain.Transaction) (int, error)
}

// Extractor is the oracle-backed extraction surface.
type Extractor interface {
	ExtractAll(ctx context.Context, chunks []reader.Chunk, hints oracle.Hints) []oracle.ChunkResult
	IdentifyInstrument(ctx context.Context, headText string) domain.PaymentMethod
}
