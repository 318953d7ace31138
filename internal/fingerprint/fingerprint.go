// Package fingerprint computes content fingerprints for ingested files.
// Two byte-identical files always share a fingerprint, regardless of name.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Sum returns the lower-hex SHA-256 digest of data.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SumReader streams r through SHA-256 and returns the lower-hex digest.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("fingerprint: reading content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile returns the fingerprint of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint: open %s: %w", path, err)
	}
	defer f.Close()
	return SumReader(f)
}
