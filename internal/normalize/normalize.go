// Package normalize canonicalizes candidate records extracted by the oracle
// into the vault's transaction shape.
package normalize

import (
	"strings"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// Normalizer converts candidates into transactions. The zero value uses the
// default date formats.
type Normalizer struct {
	// DateFormats is the prioritized list of accepted layouts;
	// nil means DefaultDateFormats.
	DateFormats []string
}

// Candidate normalizes one candidate. position is the candidate's zero-based
// position within the whole file (not the chunk); identifier derivation
// depends on it. Failures are per-candidate: the caller drops the candidate
// and keeps going.
func (n *Normalizer) Candidate(c domain.Candidate, fileHash string, position int) (domain.Transaction, error) {
	date, err := ParseDate(c.Date, n.DateFormats)
	if err != nil {
		return domain.Transaction{}, err
	}

	amount, err := ParseAmount(c.Amount, c.TxnType)
	if err != nil {
		return domain.Transaction{}, err
	}

	merchantRaw := strings.TrimSpace(c.Merchant)
	merchantNorm := Merchant(merchantRaw)

	sourceID := strings.TrimSpace(c.TransactionID)
	txnID := DeriveTransactionID(fileHash, sourceID, date, amount, merchantNorm, position)

	return domain.Transaction{
		TransactionID:      txnID,
		Date:               date,
		Amount:             amount,
		MerchantRaw:        merchantRaw,
		MerchantNormalized: merchantNorm,
		PaymentMethod:      domain.ParsePaymentMethod(c.PaymentMethod),
		Notes:              strings.TrimSpace(c.Notes),
		SourceFileHash:     fileHash,
		Position:           position,
	}, nil
}
