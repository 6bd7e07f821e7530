// Package categorise resolves a transaction's spending category with a
// fixed precedence: an explicit override on the transaction, then the
// highest-priority matching merchant rule, then "Uncategorised".
package categorise

import (
	"sort"
	"strings"

	"tally/internal/models"
)

// Source records which precedence step produced a category.
type Source string

const (
	SourceOverride Source = "override"
	SourceRule     Source = "rule"
	SourceFallback Source = "fallback"
)

// Result is a resolved category and how it was chosen.
type Result struct {
	Category models.Category `json:"category"`
	Source   Source          `json:"source"`
	RuleID   string          `json:"rule_id,omitempty"`
}

// NeedsCreate reports whether the result is the fallback category and no
// such category has been stored yet.
func (r Result) NeedsCreate() bool {
	return r.Source == SourceFallback && r.Category.ID == ""
}

// Resolver categorises transactions against a snapshot of categories and
// rules. It is immutable after construction.
type Resolver struct {
	categories    map[string]models.Category
	rules         []models.MerchantCategoryRule
	uncategorised models.Optional[models.Category]
}

// NewResolver builds a Resolver. rules must be in insertion order; among
// rules of equal priority the earlier one wins. Rules pointing at unknown
// categories are ignored.
func NewResolver(categories []models.Category, rules []models.MerchantCategoryRule) *Resolver {
	r := &Resolver{categories: make(map[string]models.Category, len(categories))}
	for _, c := range categories {
		r.categories[c.ID] = c
		if IsUncategorised(c) && !r.uncategorised.IsSome() {
			r.uncategorised = models.Some(c)
		}
	}

	for _, rule := range rules {
		if _, ok := r.categories[rule.CategoryID]; ok && strings.TrimSpace(rule.MerchantPattern) != "" {
			r.rules = append(r.rules, rule)
		}
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority > r.rules[j].Priority
	})
	return r
}

// Categorise resolves the category of one transaction.
func (r *Resolver) Categorise(tx models.Transaction) Result {
	if id, ok := tx.CategoryID.Get(); ok {
		if c, ok := r.categories[id]; ok {
			return Result{Category: c, Source: SourceOverride}
		}
	}

	for _, rule := range r.rules {
		if Matches(rule.MerchantPattern, tx.MerchantName) {
			return Result{Category: r.categories[rule.CategoryID], Source: SourceRule, RuleID: rule.ID}
		}
	}

	return Result{Category: r.fallback(tx.UserID), Source: SourceFallback}
}

// BulkCategorise resolves each transaction independently, keyed by id.
func (r *Resolver) BulkCategorise(txs []models.Transaction) map[string]Result {
	out := make(map[string]Result, len(txs))
	for _, tx := range txs {
		out[tx.ID] = r.Categorise(tx)
	}
	return out
}

func (r *Resolver) fallback(userID string) models.Category {
	if c, ok := r.uncategorised.Get(); ok {
		return c
	}
	return Uncategorised(userID)
}

// Matches reports whether a rule pattern and a merchant name contain one
// another, ignoring case. Blank values never match.
func Matches(pattern, merchant string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	m := strings.ToLower(strings.TrimSpace(merchant))
	if p == "" || m == "" {
		return false
	}
	return strings.Contains(m, p) || strings.Contains(p, m)
}

// NextRulePriority returns the priority for a newly added rule so that it
// outranks every existing rule.
func NextRulePriority(rules []models.MerchantCategoryRule) int {
	if len(rules) == 0 {
		return 1
	}
	highest := rules[0].Priority
	for _, rule := range rules[1:] {
		if rule.Priority > highest {
			highest = rule.Priority
		}
	}
	return highest + 1
}

// Uncategorised returns an unsaved fallback category for userID.
func Uncategorised(userID string) models.Category {
	return models.Category{UserID: userID, Name: models.UncategorisedName}
}

// IsUncategorised reports whether c is the fallback category.
func IsUncategorised(c models.Category) bool {
	return strings.EqualFold(c.Name, models.UncategorisedName)
}
