package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-vault/internal/domain"
)

const dateLayout = "2006-01-02"

// CommitFileAndTransactions persists one ingested file and its transactions
// in a single write transaction: all-or-nothing. Returns the number of
// transactions actually inserted.
//
// Invariants enforced here:
//   - at most one file record per fingerprint (duplicate: ErrDuplicateFile,
//     a no-op for the caller);
//   - a transaction ID already owned by a DIFFERENT file is an
//     IntegrityError that fails the whole batch;
//   - a transaction ID re-derived for the SAME file is skipped, keeping
//     resubmitted partial extractions idempotent.
func (s *Store) CommitFileAndTransactions(ctx context.Context, file domain.FileRecord, txns []domain.Transaction) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("vault: begin commit: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM files WHERE file_hash=?`, file.FileHash).Scan(&one)
	if err == nil {
		return 0, ErrDuplicateFile
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("vault: checking file %s: %w", file.FileHash, err)
	}

	if file.IngestedAt.IsZero() {
		file.IngestedAt = time.Now().UTC()
	}
	if file.Instrument == "" {
		file.Instrument = domain.PaymentUnknown
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO files (file_hash, filename, source_type, instrument, ingested_at)
VALUES (?, ?, ?, ?, ?)`,
		file.FileHash, file.Filename, string(file.SourceType), string(file.Instrument),
		file.IngestedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("vault: inserting file %s: %w", file.FileHash, err)
	}

	insert, err := tx.PrepareContext(ctx, `
INSERT INTO transactions (
	transaction_id, txn_date, amount_minor, merchant_raw, merchant_normalized,
	category, category_overridden, payment_method, notes, source_file_hash, position
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("vault: preparing insert: %w", err)
	}
	defer insert.Close()

	inserted := 0
	for _, t := range txns {
		var owner string
		err := tx.QueryRowContext(ctx,
			`SELECT source_file_hash FROM transactions WHERE transaction_id=?`,
			t.TransactionID).Scan(&owner)
		switch {
		case err == nil && owner == file.FileHash:
			// Same transaction re-derived within this file; idempotent skip.
			continue
		case err == nil:
			return 0, &IntegrityError{
				FileHash:      file.FileHash,
				TransactionID: t.TransactionID,
				Reason:        fmt.Sprintf("identifier already owned by file %s", owner),
			}
		case err != sql.ErrNoRows:
			return 0, fmt.Errorf("vault: checking transaction %s: %w", t.TransactionID, err)
		}

		var category sql.NullString
		if t.Category != "" {
			category = sql.NullString{String: t.Category, Valid: true}
		}
		if _, err := insert.ExecContext(ctx,
			t.TransactionID,
			t.Date.Format(dateLayout),
			minorUnits(t.Amount),
			t.MerchantRaw,
			t.MerchantNormalized,
			category,
			boolToInt(t.CategoryOverridden),
			string(t.PaymentMethod),
			t.Notes,
			file.FileHash,
			t.Position,
		); err != nil {
			return 0, fmt.Errorf("vault: inserting transaction %s: %w", t.TransactionID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("vault: committing file %s: %w", file.FileHash, err)
	}
	return inserted, nil
}

// SetOverride manually assigns a category and marks the transaction sticky:
// future rule changes will not touch it until the override is cleared.
func (s *Store) SetOverride(ctx context.Context, transactionID, category string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
UPDATE transactions SET category=?, category_overridden=1 WHERE transaction_id=?`,
		category, transactionID)
	if err != nil {
		return fmt.Errorf("vault: overriding %s: %w", transactionID, err)
	}
	return requireOneRow(res, transactionID)
}

// ClearOverride removes the sticky flag and immediately re-applies the
// current rule set to the transaction, restoring the invariant that
// non-overridden categories are consistent with the rules.
func (s *Store) ClearOverride(ctx context.Context, transactionID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vault: begin clear-override: %w", err)
	}
	defer tx.Rollback()

	var merchant string
	err = tx.QueryRowContext(ctx,
		`SELECT merchant_normalized FROM transactions WHERE transaction_id=?`,
		transactionID).Scan(&merchant)
	if err == sql.ErrNoRows {
		return fmt.Errorf("vault: no transaction %s", transactionID)
	}
	if err != nil {
		return fmt.Errorf("vault: loading %s: %w", transactionID, err)
	}

	engine, err := ruleEngineTx(ctx, tx)
	if err != nil {
		return err
	}
	var category sql.NullString
	if cat, ok := engine.Match(merchant); ok {
		category = sql.NullString{String: cat, Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE transactions SET category=?, category_overridden=0 WHERE transaction_id=?`,
		category, transactionID); err != nil {
		return fmt.Errorf("vault: clearing override on %s: %w", transactionID, err)
	}
	return tx.Commit()
}

func requireOneRow(res sql.Result, transactionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vault: no transaction %s", transactionID)
	}
	return nil
}

// minorUnits converts a decimal amount to integer minor units (exponent 2)
// so SQL aggregation stays exact. Sub-cent precision rounds half away from
// zero.
func minorUnits(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func fromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
