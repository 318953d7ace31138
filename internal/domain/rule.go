package domain

import (
	"sort"
	"strings"
	"time"
)

// Rule maps a case-insensitive merchant substring onto a category.
// Rules never match overridden transactions.
type Rule struct {
	RuleID    string // ULID; lexicographic order is creation order
	Pattern   string // stored lower-cased
	Category  string
	Priority  int
	CreatedAt time.Time
}

// Matches reports whether the rule's pattern occurs in the normalized merchant.
func (r *Rule) Matches(merchantNormalized string) bool {
	return r.Pattern != "" && strings.Contains(merchantNormalized, r.Pattern)
}

// SortRules orders rules for deterministic matching: priority descending,
// then newest first (rule ID descending), then longer pattern first.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		if rules[i].RuleID != rules[j].RuleID {
			return rules[i].RuleID > rules[j].RuleID
		}
		return len(rules[i].Pattern) > len(rules[j].Pattern)
	})
}
