package vault

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// TxnFilter narrows the transaction list. Zero values mean "no constraint".
type TxnFilter struct {
	From          time.Time
	To            time.Time
	Category      string
	Uncategorized bool // only transactions with no category
	Merchant      string // substring of the normalized merchant
	FileHash      string
	Limit         int
}

const txnColumns = `
transaction_id, txn_date, amount_minor, merchant_raw, merchant_normalized,
category, category_overridden, payment_method, notes, source_file_hash, position`

// ListTransactions returns transactions matching the filter, ordered by
// date then position within their source file.
func (s *Store) ListTransactions(ctx context.Context, f TxnFilter) ([]domain.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "txn_date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "txn_date <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Uncategorized {
		where = append(where, "category IS NULL")
	} else if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Merchant != "" {
		where = append(where, `merchant_normalized LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.Merchant))+"%")
	}
	if f.FileHash != "" {
		where = append(where, "source_file_hash = ?")
		args = append(args, f.FileHash)
	}

	query := "SELECT " + txnColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY txn_date, source_file_hash, position"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vault: listing transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		t           domain.Transaction
		date        string
		amountMinor int64
		category    sql.NullString
		overridden  int
		method      string
	)
	if err := rows.Scan(&t.TransactionID, &date, &amountMinor, &t.MerchantRaw,
		&t.MerchantNormalized, &category, &overridden, &method, &t.Notes,
		&t.SourceFileHash, &t.Position); err != nil {
		return domain.Transaction{}, err
	}
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("vault: stored date %q: %w", date, err)
	}
	t.Date = parsed
	t.Amount = fromMinorUnits(amountMinor)
	t.Category = category.String
	t.CategoryOverridden = overridden != 0
	t.PaymentMethod = domain.PaymentMethod(method)
	return t, nil
}

// CategorySum is one row of the by-category aggregate. Uncategorized
// transactions aggregate under an empty category.
type CategorySum struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// SumByCategory aggregates signed amounts per category over a date range.
// Zero range bounds mean unbounded.
func (s *Store) SumByCategory(ctx context.Context, from, to time.Time) ([]CategorySum, error) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "txn_date >= ?")
		args = append(args, from.Format(dateLayout))
	}
	if !to.IsZero() {
		where = append(where, "txn_date <= ?")
		args = append(args, to.Format(dateLayout))
	}
	query := `
SELECT COALESCE(category, ''), SUM(amount_minor), COUNT(*)
FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY COALESCE(category, '') ORDER BY SUM(amount_minor)"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vault: summing by category: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var (
			c     CategorySum
			minor int64
		)
		if err := rows.Scan(&c.Category, &minor, &c.Count); err != nil {
			return nil, err
		}
		c.Total = fromMinorUnits(minor)
		sums = append(sums, c)
	}
	return sums, rows.Err()
}

// MonthSum is one row of the by-month aggregate.
type MonthSum struct {
	Month   string // YYYY-MM
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// SumByMonth aggregates debits and credits per calendar month.
func (s *Store) SumByMonth(ctx context.Context) ([]MonthSum, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT substr(txn_date, 1, 7) AS month,
       SUM(CASE WHEN amount_minor < 0 THEN amount_minor ELSE 0 END),
       SUM(CASE WHEN amount_minor > 0 THEN amount_minor ELSE 0 END)
FROM transactions
GROUP BY month
ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("vault: summing by month: %w", err)
	}
	defer rows.Close()

	var sums []MonthSum
	for rows.Next() {
		var (
			m       MonthSum
			debits  int64
			credits int64
		)
		if err := rows.Scan(&m.Month, &debits, &credits); err != nil {
			return nil, err
		}
		m.Debits = fromMinorUnits(debits)
		m.Credits = fromMinorUnits(credits)
		sums = append(sums, m)
	}
	return sums, rows.Err()
}
