// Package rules maps normalized merchant strings onto spending categories
// using the vault's learned rule set.
package rules

import (
	"strings"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// Engine evaluates a fixed snapshot of the rule set. Matching is a total,
// deterministic function: when several rules match the same merchant, the
// highest priority wins, then the most recently created.
type Engine struct {
	rules []domain.Rule
}

// NewEngine builds an engine over a copy of rules, sorted into match order.
func NewEngine(ruleSet []domain.Rule) *Engine {
	sorted := make([]domain.Rule, len(ruleSet))
	copy(sorted, ruleSet)
	domain.SortRules(sorted)
	return &Engine{rules: sorted}
}

// Len returns the number of rules in the snapshot.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Match returns the category for a normalized merchant string, or ok=false
// when no rule matches.
func (e *Engine) Match(merchantNormalized string) (category string, ok bool) {
	m := strings.ToLower(merchantNormalized)
	for _, r := range e.rules {
		if r.Matches(m) {
			return r.Category, true
		}
	}
	return "", false
}

// Categorize applies the rule set to a freshly normalized transaction.
// Unmatched transactions stay uncategorized and remain eligible for future
// retroactive matching. Overridden transactions are left alone.
func (e *Engine) Categorize(tx *domain.Transaction) {
	if tx.CategoryOverridden {
		return
	}
	if category, ok := e.Match(tx.MerchantNormalized); ok {
		tx.Category = category
	}
}
