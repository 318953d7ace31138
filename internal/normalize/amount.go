package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// ParseAmount parses raw into a signed fixed-point amount with the vault's
// sign convention: debits negative, credits positive. It accepts the sign
// encodings sources and oracles actually emit - a leading minus, accounting
// parentheses, trailing DR/CR markers, currency symbols and thousands
// separators. txnType, when the source reports one, overrides the sign of
// the magnitude.
func ParseAmount(raw string, txnType string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &AmountError{Raw: raw}
	}

	negative := false
	positive := false

	// Accounting parentheses mean a debit.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	// Trailing or leading DR/CR markers.
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "DR"):
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "CR"):
		positive = true
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasPrefix(upper, "DR"):
		negative = true
		s = strings.TrimSpace(s[2:])
	case strings.HasPrefix(upper, "CR"):
		positive = true
		s = strings.TrimSpace(s[2:])
	}

	s = stripCurrency(s)
	if s == "" {
		return decimal.Zero, &AmountError{Raw: raw}
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &AmountError{Raw: raw}
	}

	if negative {
		value = value.Abs().Neg()
	}
	if positive {
		value = value.Abs()
	}

	// A source-reported direction wins over whatever sign survived above.
	switch strings.ToUpper(strings.TrimSpace(txnType)) {
	case string(domain.TxnDebit):
		value = value.Abs().Neg()
	case string(domain.TxnCredit):
		value = value.Abs()
	}

	return value, nil
}

// stripCurrency removes currency symbols, thousands separators and interior
// whitespace, keeping digits, one decimal point and a leading minus.
func stripCurrency(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
