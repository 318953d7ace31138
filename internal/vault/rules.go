package vault

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dvloznov/finance-vault/internal/domain"
	"github.com/dvloznov/finance-vault/internal/rules"
)

// TeachResult reports what a rule update did.
type TeachResult struct {
	Rule    domain.Rule
	Updated bool // an existing rule for the pattern was superseded in place
	// Recategorized is the number of historical transactions whose category
	// changed as part of the same write transaction.
	Recategorized int
}

// Teach inserts or updates a categorization rule and retroactively
// re-categorizes every matching, non-overridden historical transaction. The
// rule write and the sweep commit together: from the caller's point of view
// either both happened or neither did.
//
// Re-teaching an existing pattern updates the stored rule in place; the rule
// identifier and creation time survive, so recency tie-breaks stay stable.
func (s *Store) Teach(ctx context.Context, pattern, category string, priority int) (TeachResult, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return TeachResult{}, fmt.Errorf("vault: empty rule pattern")
	}
	if strings.TrimSpace(category) == "" {
		return TeachResult{}, fmt.Errorf("vault: empty rule category")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TeachResult{}, fmt.Errorf("vault: begin teach: %w", err)
	}
	defer tx.Rollback()

	result := TeachResult{}

	var existing domain.Rule
	var createdAt string
	err = tx.QueryRowContext(ctx, `
SELECT rule_id, pattern, category, priority, created_at FROM rules WHERE pattern=?`, pattern).
		Scan(&existing.RuleID, &existing.Pattern, &existing.Category, &existing.Priority, &createdAt)
	switch {
	case err == nil:
		// Superseding an existing pattern updates the record, never
		// duplicates it.
		if _, err := tx.ExecContext(ctx, `
UPDATE rules SET category=?, priority=? WHERE pattern=?`, category, priority, pattern); err != nil {
			return TeachResult{}, fmt.Errorf("vault: updating rule %q: %w", pattern, err)
		}
		existing.Category = category
		existing.Priority = priority
		existing.CreatedAt = parseStoredTime(createdAt)
		result.Rule = existing
		result.Updated = true
	case err == sql.ErrNoRows:
		rule := domain.Rule{
			RuleID:    ulid.Make().String(),
			Pattern:   pattern,
			Category:  category,
			Priority:  priority,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO rules (pattern, rule_id, category, priority, created_at)
VALUES (?, ?, ?, ?, ?)`,
			rule.Pattern, rule.RuleID, rule.Category, rule.Priority,
			rule.CreatedAt.Format(time.RFC3339)); err != nil {
			return TeachResult{}, fmt.Errorf("vault: inserting rule %q: %w", pattern, err)
		}
		result.Rule = rule
	default:
		return TeachResult{}, fmt.Errorf("vault: loading rule %q: %w", pattern, err)
	}

	recategorized, err := propagateRules(ctx, tx, pattern)
	if err != nil {
		return TeachResult{}, err
	}
	result.Recategorized = recategorized

	if err := tx.Commit(); err != nil {
		return TeachResult{}, fmt.Errorf("vault: committing teach %q: %w", pattern, err)
	}
	return result, nil
}

// propagateRules re-runs the full rule set over every non-overridden
// transaction whose normalized merchant contains pattern, inside the caller's
// transaction. The full set matters: a higher-priority existing rule may
// still win over the rule just taught.
func propagateRules(ctx context.Context, tx *sql.Tx, pattern string) (int, error) {
	engine, err := ruleEngineTx(ctx, tx)
	if err != nil {
		return 0, err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT transaction_id, merchant_normalized, category
FROM transactions
WHERE category_overridden=0 AND merchant_normalized LIKE ? ESCAPE '\'`,
		"%"+escapeLike(pattern)+"%")
	if err != nil {
		return 0, fmt.Errorf("vault: selecting matching transactions: %w", err)
	}

	type update struct {
		id       string
		category sql.NullString
	}
	var updates []update
	for rows.Next() {
		var (
			id       string
			merchant string
			current  sql.NullString
		)
		if err := rows.Scan(&id, &merchant, &current); err != nil {
			rows.Close()
			return 0, err
		}
		var next sql.NullString
		if cat, ok := engine.Match(merchant); ok {
			next = sql.NullString{String: cat, Valid: true}
		}
		if next != current {
			updates = append(updates, update{id: id, category: next})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(updates) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, `UPDATE transactions SET category=? WHERE transaction_id=?`)
	if err != nil {
		return 0, fmt.Errorf("vault: preparing recategorize: %w", err)
	}
	defer stmt.Close()
	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.category, u.id); err != nil {
			return 0, fmt.Errorf("vault: recategorizing %s: %w", u.id, err)
		}
	}
	return len(updates), nil
}

// ListRules returns every rule in deterministic match order.
func (s *Store) ListRules(ctx context.Context) ([]domain.Rule, error) {
	return loadRules(ctx, s.db)
}

// RuleEngine builds a match engine over the current rule set.
func (s *Store) RuleEngine(ctx context.Context) (*rules.Engine, error) {
	ruleSet, err := loadRules(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(ruleSet), nil
}

func ruleEngineTx(ctx context.Context, tx *sql.Tx) (*rules.Engine, error) {
	ruleSet, err := loadRules(ctx, tx)
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(ruleSet), nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadRules(ctx context.Context, q querier) ([]domain.Rule, error) {
	rows, err := q.QueryContext(ctx, `
SELECT rule_id, pattern, category, priority, created_at FROM rules`)
	if err != nil {
		return nil, fmt.Errorf("vault: loading rules: %w", err)
	}
	defer rows.Close()

	var ruleSet []domain.Rule
	for rows.Next() {
		var (
			r         domain.Rule
			createdAt string
		)
		if err := rows.Scan(&r.RuleID, &r.Pattern, &r.Category, &r.Priority, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = parseStoredTime(createdAt)
		ruleSet = append(ruleSet, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	domain.SortRules(ruleSet)
	return ruleSet, nil
}
