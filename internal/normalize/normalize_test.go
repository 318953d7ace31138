package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-vault/internal/domain"
)

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-03-15", "2024-03-15"},
		{"15/03/2024", "2024-03-15"},
		{"15-03-2024", "2024-03-15"},
		{"15 Mar 2024", "2024-03-15"},
		{"Mar 15, 2024", "2024-03-15"},
		{" 2024-03-15 ", "2024-03-15"},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.raw, nil)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.raw, err)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestParseDateUnparsable(t *testing.T) {
	_, err := ParseDate("yesterday", nil)
	var dateErr *DateError
	if !errors.As(err, &dateErr) {
		t.Fatalf("got %v, want *DateError", err)
	}
	if dateErr.Raw != "yesterday" {
		t.Errorf("DateError.Raw = %q", dateErr.Raw)
	}
}

func TestParseAmountSignCanonicalization(t *testing.T) {
	tests := []struct {
		raw     string
		txnType string
		want    string
	}{
		{"(42.50)", "", "-42.5"},
		{"-42.50", "", "-42.5"},
		{"42.50 DR", "", "-42.5"},
		{"42.50 CR", "", "42.5"},
		{"42.50", "DEBIT", "-42.5"},
		{"42.50", "CREDIT", "42.5"},
		{"-42.50", "CREDIT", "42.5"},
		{"£1,234.56", "", "1234.56"},
		{"₹ 99.00", "DEBIT", "-99"},
		{"$-17.25", "", "-17.25"},
		{"100", "", "100"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.raw, tt.txnType)
		if err != nil {
			t.Errorf("ParseAmount(%q, %q): %v", tt.raw, tt.txnType, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q, %q) = %s, want %s", tt.raw, tt.txnType, got, tt.want)
		}
	}
}

func TestParseAmountUnparsable(t *testing.T) {
	for _, raw := range []string{"", "N/A", "--", "(  )"} {
		_, err := ParseAmount(raw, "")
		var amountErr *AmountError
		if !errors.As(err, &amountErr) {
			t.Errorf("ParseAmount(%q): got %v, want *AmountError", raw, err)
		}
	}
}

func TestMerchant(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"UBER *TRIP 882", "uber trip 882"},
		{"  Netflix.com  ", "netflix com"},
		{"POS/AMAZON-IN/MUMBAI", "pos amazon in mumbai"},
		{"Café Déjà Vu", "café déjà vu"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Merchant(tt.raw); got != tt.want {
			t.Errorf("Merchant(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDeriveTransactionIDDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("-42.50")

	a := DeriveTransactionID("hash1", "", date, amount, "uber trip", 3)
	b := DeriveTransactionID("hash1", "", date, amount, "uber trip", 3)
	if a != b {
		t.Error("same inputs derived different IDs")
	}

	c := DeriveTransactionID("hash1", "", date, amount, "uber trip", 4)
	if a == c {
		t.Error("different positions derived identical IDs")
	}

	d := DeriveTransactionID("hash2", "", date, amount, "uber trip", 3)
	if a == d {
		t.Error("different files derived identical IDs")
	}
}

func TestDeriveTransactionIDSourceIDDominates(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("-42.50")

	a := DeriveTransactionID("hash1", "REF123", date, amount, "uber trip", 3)
	b := DeriveTransactionID("hash1", "REF123", date, amount.Neg(), "other merchant", 9)
	if a != b {
		t.Error("source ID should dominate derivation within a file")
	}

	c := DeriveTransactionID("hash1", "REF124", date, amount, "uber trip", 3)
	if a == c {
		t.Error("different source IDs derived identical IDs")
	}
}

func TestNormalizeCandidate(t *testing.T) {
	n := &Normalizer{}
	c := domain.Candidate{
		Date:          "15/03/2024",
		Merchant:      " UBER *TRIP 882 ",
		Amount:        "(42.50)",
		PaymentMethod: "credit card",
		Notes:         " ride home ",
	}
	tx, err := n.Candidate(c, "filehash", 2)
	if err != nil {
		t.Fatalf("Candidate: %v", err)
	}
	if tx.MerchantRaw != "UBER *TRIP 882" {
		t.Errorf("MerchantRaw = %q", tx.MerchantRaw)
	}
	if tx.MerchantNormalized != "uber trip 882" {
		t.Errorf("MerchantNormalized = %q", tx.MerchantNormalized)
	}
	if tx.Amount.String() != "-42.5" {
		t.Errorf("Amount = %s", tx.Amount)
	}
	if tx.PaymentMethod != domain.PaymentCreditCard {
		t.Errorf("PaymentMethod = %s", tx.PaymentMethod)
	}
	if tx.Notes != "ride home" {
		t.Errorf("Notes = %q", tx.Notes)
	}
	if tx.SourceFileHash != "filehash" || tx.Position != 2 {
		t.Errorf("ownership fields wrong: %+v", tx)
	}
	if tx.Category != "" || tx.CategoryOverridden {
		t.Error("new transaction must start uncategorized")
	}
}

func TestNormalizeCandidateFailures(t *testing.T) {
	n := &Normalizer{}

	_, err := n.Candidate(domain.Candidate{Date: "bad", Amount: "1.00", Merchant: "m"}, "h", 0)
	var dateErr *DateError
	if !errors.As(err, &dateErr) {
		t.Errorf("got %v, want *DateError", err)
	}

	_, err = n.Candidate(domain.Candidate{Date: "2024-01-01", Amount: "??", Merchant: "m"}, "h", 0)
	var amountErr *AmountError
	if !errors.As(err, &amountErr) {
		t.Errorf("got %v, want *AmountError", err)
	}
}
