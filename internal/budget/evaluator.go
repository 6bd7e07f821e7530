// Package budget aggregates spending per month and category and reports
// where configured limits are exceeded. All functions are pure.
package budget

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

// UncategorisedBucket groups transactions without a category id.
const UncategorisedBucket = "uncategorised"

// BreachType identifies which limit was exceeded.
type BreachType string

const (
	BreachMonthly  BreachType = "monthly"
	BreachYearly   BreachType = "yearly"
	BreachCategory BreachType = "category"
)

// Breach is a limit strictly exceeded by spend.
type Breach struct {
	Type       BreachType      `json:"type"`
	CategoryID string          `json:"category_id,omitempty"`
	Spent      decimal.Decimal `json:"spent"`
	Limit      decimal.Decimal `json:"limit"`
	Overage    decimal.Decimal `json:"overage"`
}

// CategoryStatus is spend against one category's effective limit.
type CategoryStatus struct {
	CategoryID   string                           `json:"category_id"`
	CategoryName string                           `json:"category_name"`
	Spent        decimal.Decimal                  `json:"spent"`
	Limit        models.Optional[decimal.Decimal] `json:"limit"`
	IsOver       bool                             `json:"is_over"`
}

// Status is the budget report for one month.
type Status struct {
	Month          string           `json:"month"`
	Currency       string           `json:"currency,omitempty"`
	TotalSpent     decimal.Decimal  `json:"total_spent"`
	YearToDate     decimal.Decimal  `json:"year_to_date"`
	CategoryStatus []CategoryStatus `json:"category_status"`
	Breaches       []Breach         `json:"breaches"`
	IsOverBudget   bool             `json:"is_over_budget"`
}

// Evaluate builds the budget status for month ("YYYY-MM"). A nil config
// means no limits, so nothing can breach. When the config names a currency,
// transactions in other currencies are left out of every total.
func Evaluate(month string, txs []models.Transaction, categories []models.Category, cfg *models.BudgetConfig) (*Status, error) {
	start, end, err := MonthBounds(month)
	if err != nil {
		return nil, err
	}
	yearStart := time.Date(start.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	status := &Status{
		Month:          month,
		TotalSpent:     decimal.Zero,
		YearToDate:     decimal.Zero,
		CategoryStatus: []CategoryStatus{},
		Breaches:       []Breach{},
	}
	if cfg != nil {
		status.Currency = cfg.Currency
	}

	spend := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if !tx.Valid() || !sameCurrency(cfg, tx.Currency) {
			continue
		}
		if within(tx.Date, yearStart, end) {
			status.YearToDate = status.YearToDate.Add(tx.Amount)
		}
		if !within(tx.Date, start, end) {
			continue
		}
		status.TotalSpent = status.TotalSpent.Add(tx.Amount)
		key := tx.CategoryID.OrElse(UncategorisedBucket)
		if key == "" {
			key = UncategorisedBucket
		}
		spend[key] = spend[key].Add(tx.Amount)
	}

	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	if cfg != nil {
		if limit, ok := cfg.MonthlyLimit.Get(); ok && status.TotalSpent.GreaterThan(limit) {
			status.Breaches = append(status.Breaches, newBreach(BreachMonthly, "", status.TotalSpent, limit))
		}
		if limit, ok := cfg.YearlyLimit.Get(); ok && status.YearToDate.GreaterThan(limit) {
			status.Breaches = append(status.Breaches, newBreach(BreachYearly, "", status.YearToDate, limit))
		}
	}

	status.CategoryStatus = categoryStatuses(spend, byID, cfg)
	for _, cs := range status.CategoryStatus {
		if cs.IsOver {
			limit, _ := cs.Limit.Get()
			status.Breaches = append(status.Breaches, newBreach(BreachCategory, cs.CategoryID, cs.Spent, limit))
		}
	}

	status.IsOverBudget = len(status.Breaches) > 0
	return status, nil
}

// EffectiveLimit returns the limit that applies to categoryID: the config's
// per-category limit if set, else the category's own monthly limit.
func EffectiveLimit(categoryID string, category models.Optional[models.Category], cfg *models.BudgetConfig) models.Optional[decimal.Decimal] {
	if cfg == nil {
		return models.None[decimal.Decimal]()
	}
	if limit, ok := cfg.PerCategoryLimits[categoryID]; ok {
		return models.Some(limit)
	}
	if c, ok := category.Get(); ok {
		return c.MonthlyLimit
	}
	return models.None[decimal.Decimal]()
}

func categoryStatuses(spend map[string]decimal.Decimal, byID map[string]models.Category, cfg *models.BudgetConfig) []CategoryStatus {
	ids := make(map[string]struct{}, len(spend))
	for id := range spend {
		ids[id] = struct{}{}
	}
	// Categories with a limit are reported even when nothing was spent.
	if cfg != nil {
		for id := range cfg.PerCategoryLimits {
			ids[id] = struct{}{}
		}
		for id, c := range byID {
			if c.MonthlyLimit.IsSome() {
				ids[id] = struct{}{}
			}
		}
	}

	out := make([]CategoryStatus, 0, len(ids))
	for id := range ids {
		var category models.Optional[models.Category]
		name := models.UncategorisedName
		if c, ok := byID[id]; ok {
			category = models.Some(c)
			name = c.Name
		}
		cs := CategoryStatus{
			CategoryID:   id,
			CategoryName: name,
			Spent:        spend[id],
			Limit:        EffectiveLimit(id, category, cfg),
		}
		if limit, ok := cs.Limit.Get(); ok {
			cs.IsOver = cs.Spent.GreaterThan(limit)
		}
		out = append(out, cs)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Spent.Equal(out[j].Spent) {
			return out[i].Spent.GreaterThan(out[j].Spent)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

func newBreach(t BreachType, categoryID string, spent, limit decimal.Decimal) Breach {
	return Breach{Type: t, CategoryID: categoryID, Spent: spent, Limit: limit, Overage: spent.Sub(limit)}
}

func sameCurrency(cfg *models.BudgetConfig, currency string) bool {
	if cfg == nil || cfg.Currency == "" || currency == "" {
		return true
	}
	return strings.EqualFold(cfg.Currency, currency)
}
