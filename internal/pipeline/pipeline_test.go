package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-vault/internal/domain"
	"github.com/dvloznov/finance-vault/internal/oracle"
	"github.com/dvloznov/finance-vault/internal/reader"
	"github.com/dvloznov/finance-vault/internal/rules"
	"github.com/dvloznov/finance-vault/internal/vault"
)

type mockVault struct {
	seen      bool
	rules     []domain.Rule
	commitErr error

	committedFile domain.FileRecord
	committedTxns []domain.Transaction
	commits       int
}

func (m *mockVault) AlreadyIngested(ctx context.Context, fileHash string) (bool, error) {
	return m.seen, nil
}

func (m *mockVault) RuleEngine(ctx context.Context) (*rules.Engine, error) {
	return rules.NewEngine(m.rules), nil
}

func (m *mockVault) CommitFileAndTransactions(ctx context.Context, file domain.FileRecord, txns []domain.Transaction) (int, error) {
	m.commits++
	if m.commitErr != nil {
		return 0, m.commitErr
	}
	m.committedFile = file
	m.committedTxns = txns
	return len(txns), nil
}

type mockExtractor struct {
	instrument domain.PaymentMethod
	// results maps chunk index to the result to return; missing indexes get
	// an empty successful result.
	results map[int]oracle.ChunkResult

	extractCalls    int
	instrumentCalls int
}

func (m *mockExtractor) ExtractAll(ctx context.Context, chunks []reader.Chunk, hints oracle.Hints) []oracle.ChunkResult {
	m.extractCalls++
	out := make([]oracle.ChunkResult, len(chunks))
	for i := range chunks {
		if r, ok := m.results[i]; ok {
			out[i] = r
		} else {
			out[i] = oracle.ChunkResult{Chunk: i}
		}
	}
	return out
}

func (m *mockExtractor) IdentifyInstrument(ctx context.Context, headText string) domain.PaymentMethod {
	m.instrumentCalls++
	if m.instrument == "" {
		return domain.PaymentUnknown
	}
	return m.instrument
}

const statementCSV = `Date,Description,Amount
2026-01-05,STARBUCKS LONDON,-4.50
2026-01-25,PAYROLL LTD,2500.00
`

func candidate(date, merchant, amount string) domain.Candidate {
	return domain.Candidate{Date: date, Merchant: merchant, Amount: amount}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestIngestFilePersists(t *testing.T) {
	v := &mockVault{rules: []domain.Rule{
		{RuleID: "01A", Pattern: "starbucks", Category: "Coffee"},
	}}
	ex := &mockExtractor{
		instrument: domain.PaymentDebitCard,
		results: map[int]oracle.ChunkResult{
			0: {Chunk: 0, Candidates: []domain.Candidate{
				candidate("2026-01-05", "STARBUCKS LONDON", "-4.50"),
				candidate("2026-01-25", "PAYROLL LTD", "2500.00"),
			}},
		},
	}
	ing := &Ingestor{Vault: v, Extractor: ex, Now: fixedNow}

	report, err := ing.IngestFile(context.Background(), "jan.csv", []byte(statementCSV))
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if report.Status != StatusPersisted {
		t.Fatalf("Status = %s, want PERSISTED", report.Status)
	}
	if report.Extracted != 2 || report.Persisted != 2 || report.Dropped != 0 {
		t.Errorf("report = %+v, want 2 extracted, 2 persisted", report)
	}
	if report.Instrument != domain.PaymentDebitCard {
		t.Errorf("Instrument = %s, want Debit Card", report.Instrument)
	}

	if v.commits != 1 || len(v.committedTxns) != 2 {
		t.Fatalf("committed %d batches, %d txns", v.commits, len(v.committedTxns))
	}
	if v.committedFile.FileHash != report.FileHash || v.committedFile.SourceType != domain.SourceCSV {
		t.Errorf("file record = %+v", v.committedFile)
	}
	if !v.committedFile.IngestedAt.Equal(fixedNow()) {
		t.Errorf("IngestedAt = %v, want fixed clock", v.committedFile.IngestedAt)
	}

	first := v.committedTxns[0]
	if first.Category != "Coffee" {
		t.Errorf("category = %q, want rule-derived Coffee", first.Category)
	}
	if first.Position != 0 || v.committedTxns[1].Position != 1 {
		t.Errorf("positions = %d, %d, want 0, 1", first.Position, v.committedTxns[1].Position)
	}
	if !strings.HasPrefix(first.TransactionID, "txn-") {
		t.Errorf("TransactionID = %q, want derived id", first.TransactionID)
	}
}

func TestIngestFileDuplicateSkipsOracle(t *testing.T) {
	v := &mockVault{seen: true}
	ex := &mockExtractor{}
	ing := &Ingestor{Vault: v, Extractor: ex}

	report, err := ing.IngestFile(context.Background(), "jan.csv", []byte(statementCSV))
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if report.Status != StatusDuplicate {
		t.Fatalf("Status = %s, want DUPLICATE", report.Status)
	}
	if ex.extractCalls != 0 || ex.instrumentCalls != 0 {
		t.Error("oracle was called for a duplicate file")
	}
	if v.commits != 0 {
		t.Error("a duplicate file was committed")
	}
}

func TestIngestFileCommitRaceReportsDuplicate(t *testing.T) {
	v := &mockVault{commitErr: vault.ErrDuplicateFile}
	ex := &mockExtractor{results: map[int]oracle.ChunkResult{
		0: {Chunk: 0, Candidates: []domain.Candidate{candidate("2026-01-05", "STARBUCKS", "-4.50")}},
	}}
	ing := &Ingestor{Vault: v, Extractor: ex}

	report, err := ing.IngestFile(context.Background(), "jan.csv", []byte(statementCSV))
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if report.Status != StatusDuplicate {
		t.Fatalf("Status = %s, want DUPLICATE", report.Status)
	}
}

func TestIngestFilePartialChunkFailure(t *testing.T) {
	// 45 data rows at 20 lines per chunk gives 3 chunks.
	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for i := 0; i < 45; i++ {
		b.WriteString("2026-01-05,TFL TRAVEL,-2.80\n")
	}

	v := &mockVault{}
	ex := &mockExtractor{results: map[int]oracle.ChunkResult{
		0: {Chunk: 0, Candidates: []domain.Candidate{candidate("2026-01-05", "TFL TRAVEL", "-2.80")}},
		1: {Chunk: 1, Err: &oracle.ParseError{Chunk: 1, Reason: "not json"}},
		2: {Chunk: 2, Candidates: []domain.Candidate{candidate("2026-01-06", "TFL TRAVEL", "-2.80")}, Dropped: 1},
	}}
	ing := &Ingestor{Vault: v, Extractor: ex}

	report, err := ing.IngestFile(context.Background(), "jan.csv", []byte(b.String()))
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if report.Status != StatusPersisted {
		t.Fatalf("Status = %s, want PERSISTED", report.Status)
	}
	if report.FailedChunks != 1 {
		t.Errorf("FailedChunks = %d, want 1", report.FailedChunks)
	}
	if report.Extracted != 2 || report.Dropped != 1 {
		t.Errorf("report = %+v, want 2 extracted, 1 dropped", report)
	}
}

func TestIngestFileAllChunksFailed(t *testing.T) {
	v := &mockVault{}
	ex := &mockExtractor{results: map[int]oracle.ChunkResult{
		0: {Chunk: 0, Err: &oracle.ParseError{Chunk: 0, Reason: "oracle down"}},
	}}
	ing := &Ingestor{Vault: v, Extractor: ex}

	report, err := ing.IngestFile(context.Background(), "jan.csv", []byte(statementCSV))
	if err == nil {
		t.Fatal("IngestFile: got nil error when every chunk failed")
	}
	if report.Status != StatusFailed {
		t.Fatalf("Status = %s, want FAILED", report.Status)
	}
	if v.commits != 0 {
		t.Error("a fully failed file was committed")
	}
}

func TestIngestFileDropsUnparsableCandidates(t *testing.T) {
	v := &mockVault{}
	ex := &mockExtractor{results: map[int]oracle.ChunkResult{
		0: {Chunk: 0, Candidates: []domain.Candidate{
			candidate("2026-01-05", "STARBUCKS", "-4.50"),
			candidate("not a date", "GARBAGE", "-1.00"),
		}},
	}}
	ing := &Ingestor{Vault: v, Extractor: ex}

	report, err := ing.IngestFile(context.Background(), "jan.csv", []byte(statementCSV))
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if report.Extracted != 1 || report.Dropped != 1 {
		t.Errorf("report = %+v, want 1 extracted, 1 dropped", report)
	}
}

func TestIngestFileRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  error
	}{
		{"empty file", "jan.csv", nil, nil},
		{"unsupported extension", "jan.docx", []byte(statementCSV), reader.ErrUnsupportedFormat},
		{"unrecognizable csv", "jan.csv", []byte("a,b\n1,2\n"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &Ingestor{Vault: &mockVault{}, Extractor: &mockExtractor{}}
			report, err := ing.IngestFile(context.Background(), tt.filename, tt.data)
			if err == nil {
				t.Fatal("got nil error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if report.Status != StatusFailed {
				t.Errorf("Status = %s, want FAILED", report.Status)
			}
		})
	}
}
