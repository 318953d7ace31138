package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const idPrefix = "txn-"

// DeriveTransactionID produces the stable transaction identifier.
//
// When the source supplies its own identifier it dominates the derivation,
// maximizing distinctness between otherwise identical-looking movements.
// Otherwise the identifier comes from the normalized content plus the
// position in the file, so re-extracting the same file yields the same IDs
// and persistence stays idempotent per transaction, not just per file.
func DeriveTransactionID(fileHash, sourceID string, date time.Time, amount decimal.Decimal, merchantNormalized string, position int) string {
	var seed string
	if sourceID != "" {
		seed = fmt.Sprintf("%s|id|%s", fileHash, sourceID)
	} else {
		seed = fmt.Sprintf("%s|%s|%s|%s|%d",
			fileHash, date.Format("2006-01-02"), amount.String(), merchantNormalized, position)
	}
	digest := sha256.Sum256([]byte(seed))
	return idPrefix + hex.EncodeToString(digest[:])[:16]
}
