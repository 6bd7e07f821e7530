package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

func TestWillExceedOnAdd(t *testing.T) {
	categories := []models.Category{{Base: models.Base{ID: "ent"}, Name: "Entertainment"}}
	cfg := &models.BudgetConfig{
		Currency:          "GBP",
		MonthlyLimit:      models.Some(dec("100.00")),
		PerCategoryLimits: map[string]decimal.Decimal{"ent": dec("20.00"), "other": dec("1.00")},
	}
	txs := []models.Transaction{
		spend("a", "80.00", "2025-03-02"),
		spend("b", "15.00", "2025-03-03", "ent"),
		spend("c", "5.00", "2025-03-04", "other"),
	}
	when := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)

	t.Run("within every limit", func(t *testing.T) {
		p, err := WillExceedOnAdd(txs, categories, cfg, dec("0.00"), models.None[string](), when)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.WillExceed {
			t.Errorf("expected no breach, got %q", p.Reason)
		}
	})

	t.Run("monthly limit reported first", func(t *testing.T) {
		p, err := WillExceedOnAdd(txs, categories, cfg, dec("10.00"), models.Some("ent"), when)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.WillExceed || p.Breach.Type != BreachMonthly {
			t.Fatalf("expected monthly breach, got %+v", p)
		}
		if p.Reason == "" {
			t.Error("expected a reason")
		}
	})

	t.Run("category limit", func(t *testing.T) {
		roomy := *cfg
		roomy.MonthlyLimit = models.Some(dec("1000.00"))
		p, err := WillExceedOnAdd(txs, categories, &roomy, dec("6.00"), models.Some("ent"), when)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.WillExceed || p.Breach.Type != BreachCategory || p.Breach.CategoryID != "ent" {
			t.Fatalf("expected ent category breach, got %+v", p)
		}
		if !p.Breach.Overage.Equal(dec("1.00")) {
			t.Errorf("expected overage 1.00, got %s", p.Breach.Overage)
		}
	})

	t.Run("other categories over their limit are ignored", func(t *testing.T) {
		roomy := *cfg
		roomy.MonthlyLimit = models.None[decimal.Decimal]()
		p, err := WillExceedOnAdd(txs, categories, &roomy, dec("1.00"), models.Some("ent"), when)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.WillExceed {
			t.Errorf("expected no breach for ent, got %+v", p)
		}
	})

	t.Run("no config never exceeds", func(t *testing.T) {
		p, err := WillExceedOnAdd(txs, categories, nil, dec("1000000"), models.None[string](), when)
		if err != nil || p.WillExceed {
			t.Errorf("expected no breach, got %+v, %v", p, err)
		}
	})
}

func TestYearlySpending(t *testing.T) {
	txs := []models.Transaction{
		spend("a", "10.00", "2025-01-31"),
		spend("b", "2.50", "2025-02-01"),
		spend("c", "2.50", "2025-02-28"),
		spend("d", "99.00", "2024-12-31"),
	}
	totals, err := YearlySpending(2025, txs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(totals) != 12 {
		t.Fatalf("expected 12 months, got %d", len(totals))
	}
	if totals[0].Month != "2025-01" || !totals[0].Total.Equal(dec("10.00")) {
		t.Errorf("unexpected January %+v", totals[0])
	}
	if !totals[1].Total.Equal(dec("5.00")) {
		t.Errorf("expected February 5.00, got %s", totals[1].Total)
	}
	if totals[11].Month != "2025-12" || !totals[11].Total.IsZero() {
		t.Errorf("unexpected December %+v", totals[11])
	}
}
