// Package vault is the durable local store of files, transactions and rules.
// It owns every durability and consistency invariant: one file record per
// fingerprint, all-or-nothing batch commits, and atomic rule propagation.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrDuplicateFile reports that a file with the same fingerprint is already
// in the vault. It is informational: callers surface it as a successful
// no-op, not a failure.
var ErrDuplicateFile = errors.New("vault: file already ingested")

// IntegrityError reports an invariant violation while committing a batch.
// The whole batch is rolled back; nothing is persisted.
type IntegrityError struct {
	FileHash      string
	TransactionID string
	Reason        string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("vault: integrity violation for file %s (transaction %s): %s",
		e.FileHash, e.TransactionID, e.Reason)
}

// Store is the SQLite-backed vault. It is single-writer: all mutating
// operations serialize on an internal lock, while readers see consistent
// snapshots through WAL mode.
type Store struct {
	db *sql.DB

	// writeMu serializes write transactions. Extraction never runs under
	// this lock; pipelines only take it for the final commit.
	writeMu sync.Mutex
}

// Open opens (creating if needed) the vault database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("vault: open %s: %w", path, err)
	}

	// WAL mode for concurrent readers during commits.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: enabling foreign keys: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS files (
	file_hash TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	source_type TEXT NOT NULL,
	instrument TEXT NOT NULL DEFAULT 'Unknown',
	ingested_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	transaction_id TEXT PRIMARY KEY,
	txn_date TEXT NOT NULL,
	amount_minor INTEGER NOT NULL,
	merchant_raw TEXT NOT NULL,
	merchant_normalized TEXT NOT NULL,
	category TEXT,
	category_overridden INTEGER NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL DEFAULT 'Unknown',
	notes TEXT NOT NULL DEFAULT '',
	source_file_hash TEXT NOT NULL,
	position INTEGER NOT NULL,
	FOREIGN KEY(source_file_hash) REFERENCES files(file_hash) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_txn_merchant ON transactions(merchant_normalized);
CREATE INDEX IF NOT EXISTS idx_txn_date ON transactions(txn_date);
CREATE INDEX IF NOT EXISTS idx_txn_file ON transactions(source_file_hash);

CREATE TABLE IF NOT EXISTS rules (
	pattern TEXT PRIMARY KEY,
	rule_id TEXT NOT NULL,
	category TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// escapeLike escapes LIKE metacharacters so user-supplied patterns match
// literally. Queries using it must add ESCAPE '\'.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
