package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// AlreadyIngested reports whether a file with this fingerprint has been
// committed. It is checked before any extraction work begins and is
// authoritative against the store; no separate cache exists to diverge.
func (s *Store) AlreadyIngested(ctx context.Context, fileHash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM files WHERE file_hash=?`, fileHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vault: checking file %s: %w", fileHash, err)
	}
	return true, nil
}

// GetFile loads one file record by fingerprint.
func (s *Store) GetFile(ctx context.Context, fileHash string) (domain.FileRecord, bool, error) {
	var (
		f          domain.FileRecord
		ingestedAt string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT file_hash, filename, source_type, instrument, ingested_at
FROM files WHERE file_hash=?`, fileHash).
		Scan(&f.FileHash, &f.Filename, &f.SourceType, &f.Instrument, &ingestedAt)
	if err == sql.ErrNoRows {
		return domain.FileRecord{}, false, nil
	}
	if err != nil {
		return domain.FileRecord{}, false, fmt.Errorf("vault: loading file %s: %w", fileHash, err)
	}
	f.IngestedAt = parseStoredTime(ingestedAt)
	return f, true, nil
}

// ListFiles returns every file record, newest first.
func (s *Store) ListFiles(ctx context.Context) ([]domain.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT file_hash, filename, source_type, instrument, ingested_at
FROM files ORDER BY ingested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("vault: listing files: %w", err)
	}
	defer rows.Close()

	var files []domain.FileRecord
	for rows.Next() {
		var (
			f          domain.FileRecord
			ingestedAt string
		)
		if err := rows.Scan(&f.FileHash, &f.Filename, &f.SourceType, &f.Instrument, &ingestedAt); err != nil {
			return nil, err
		}
		f.IngestedAt = parseStoredTime(ingestedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
