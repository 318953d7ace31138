package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the direction of a transaction as reported by the source.
type TxnType string

const (
	TxnDebit  TxnType = "DEBIT"
	TxnCredit TxnType = "CREDIT"
)

// PaymentMethod is the instrument a transaction was made with.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "Credit Card"
	PaymentDebitCard    PaymentMethod = "Debit Card"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentCash         PaymentMethod = "Cash"
	PaymentUnknown      PaymentMethod = "Unknown"
)

// ParsePaymentMethod maps free-form oracle output onto a known instrument.
// Anything unrecognized collapses to Unknown.
func ParsePaymentMethod(s string) PaymentMethod {
	for _, m := range []PaymentMethod{
		PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentBankTransfer, PaymentCash,
	} {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m
		}
	}
	return PaymentUnknown
}

// Transaction is one normalized financial movement owned by exactly one
// ingested file. Amount is signed: debits negative, credits positive.
type Transaction struct {
	TransactionID      string
	Date               time.Time
	Amount             decimal.Decimal
	MerchantRaw        string
	MerchantNormalized string
	Category           string // empty until categorized
	CategoryOverridden bool
	PaymentMethod      PaymentMethod
	Notes              string
	SourceFileHash     string
	Position           int // zero-based position within the source file
}

// Categorized reports whether the transaction carries a category.
func (t *Transaction) Categorized() bool {
	return t.Category != ""
}
