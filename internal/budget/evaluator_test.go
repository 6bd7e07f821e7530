package budget

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func spend(id, amount, day string, categoryID ...string) models.Transaction {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	tx := models.Transaction{
		Base:         models.Base{ID: id},
		MerchantName: "Shop " + id,
		Amount:       dec(amount),
		Currency:     "GBP",
		Date:         d,
	}
	if len(categoryID) > 0 {
		tx.CategoryID = models.Some(categoryID[0])
	}
	return tx
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		month     string
		wantStart string
		wantEnd   string
	}{
		{"2025-01", "2025-01-01", "2025-01-31"},
		{"2025-02", "2025-02-01", "2025-02-28"},
		{"2024-02", "2024-02-01", "2024-02-29"},
		{"2025-12", "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			start, end, err := MonthBounds(tt.month)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := start.Format("2006-01-02"); got != tt.wantStart {
				t.Errorf("start: expected %s, got %s", tt.wantStart, got)
			}
			if got := end.Format("2006-01-02"); got != tt.wantEnd {
				t.Errorf("end: expected %s, got %s", tt.wantEnd, got)
			}
		})
	}

	for _, bad := range []string{"", "2025-13", "2025/01", "January"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, _, err := MonthBounds(bad)
			if !errors.Is(err, apperrors.ErrInvalidMonth) {
				t.Errorf("expected ErrInvalidMonth, got %v", err)
			}
		})
	}
}

func TestEvaluateMonthlyBoundary(t *testing.T) {
	cfg := &models.BudgetConfig{Currency: "GBP", MonthlyLimit: models.Some(dec("100.00"))}

	t.Run("spend equal to the limit is not a breach", func(t *testing.T) {
		txs := []models.Transaction{spend("a", "60.00", "2025-03-01"), spend("b", "40.00", "2025-03-31")}
		status, err := Evaluate("2025-03", txs, nil, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !status.TotalSpent.Equal(dec("100.00")) {
			t.Errorf("expected total 100.00, got %s", status.TotalSpent)
		}
		if status.IsOverBudget || len(status.Breaches) != 0 {
			t.Errorf("expected no breach, got %+v", status.Breaches)
		}
	})

	t.Run("spend over the limit reports the overage", func(t *testing.T) {
		txs := []models.Transaction{spend("a", "60.00", "2025-03-01"), spend("b", "50.00", "2025-03-31")}
		status, err := Evaluate("2025-03", txs, nil, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !status.IsOverBudget || len(status.Breaches) != 1 {
			t.Fatalf("expected one breach, got %+v", status.Breaches)
		}
		b := status.Breaches[0]
		if b.Type != BreachMonthly || !b.Overage.Equal(dec("10.00")) {
			t.Errorf("expected monthly overage 10.00, got %s %s", b.Type, b.Overage)
		}
	})
}

func TestEvaluateBounds(t *testing.T) {
	txs := []models.Transaction{
		spend("feb", "5.00", "2025-02-28"),
		spend("first", "1.10", "2025-03-01"),
		spend("last", "2.20", "2025-03-31"),
		spend("apr", "7.00", "2025-04-01"),
		{Base: models.Base{ID: "broken"}, Amount: dec("9.99"), Currency: "GBP"},
	}
	status, err := Evaluate("2025-03", txs, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.TotalSpent.Equal(dec("3.30")) {
		t.Errorf("expected 3.30, got %s", status.TotalSpent)
	}
	if !status.YearToDate.Equal(dec("8.30")) {
		t.Errorf("expected year to date 8.30, got %s", status.YearToDate)
	}
}

func TestEvaluateCategories(t *testing.T) {
	categories := []models.Category{
		{Base: models.Base{ID: "groc"}, Name: "Groceries", MonthlyLimit: models.Some(dec("50.00"))},
		{Base: models.Base{ID: "ent"}, Name: "Entertainment", MonthlyLimit: models.Some(dec("10.00"))},
		{Base: models.Base{ID: "travel"}, Name: "Travel"},
	}
	cfg := &models.BudgetConfig{
		Currency:          "GBP",
		PerCategoryLimits: map[string]decimal.Decimal{"ent": dec("30.00")},
	}
	txs := []models.Transaction{
		spend("a", "55.00", "2025-03-02", "groc"),
		spend("b", "20.00", "2025-03-03", "ent"),
		spend("c", "12.00", "2025-03-04"),
		spend("d", "3.00", "2025-03-05", "travel"),
	}

	status, err := Evaluate("2025-03", txs, categories, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[string]CategoryStatus)
	for _, cs := range status.CategoryStatus {
		byID[cs.CategoryID] = cs
	}

	if cs := byID["groc"]; !cs.IsOver {
		t.Errorf("expected groceries over its own limit, got %+v", cs)
	}
	if cs := byID["ent"]; cs.IsOver {
		t.Errorf("expected per-category limit 30.00 to override 10.00, got %+v", cs)
	}
	if cs, ok := byID[UncategorisedBucket]; !ok || !cs.Spent.Equal(dec("12.00")) || cs.CategoryName != models.UncategorisedName {
		t.Errorf("expected uncategorised bucket of 12.00, got %+v", cs)
	}
	if cs := byID["travel"]; cs.Limit.IsSome() || cs.IsOver {
		t.Errorf("expected travel without a limit, got %+v", cs)
	}

	if len(status.Breaches) != 1 {
		t.Fatalf("expected one breach, got %+v", status.Breaches)
	}
	b := status.Breaches[0]
	if b.Type != BreachCategory || b.CategoryID != "groc" || !b.Overage.Equal(dec("5.00")) {
		t.Errorf("unexpected breach %+v", b)
	}
	if status.CategoryStatus[0].CategoryID != "groc" {
		t.Errorf("expected categories ordered by spend, got %s first", status.CategoryStatus[0].CategoryID)
	}
}

func TestEvaluateYearly(t *testing.T) {
	cfg := &models.BudgetConfig{Currency: "GBP", YearlyLimit: models.Some(dec("200.00"))}
	txs := []models.Transaction{
		spend("a", "150.00", "2025-01-15"),
		spend("b", "60.00", "2025-03-10"),
		spend("c", "500.00", "2025-04-01"),
		spend("d", "500.00", "2024-12-31"),
	}
	status, err := Evaluate("2025-03", txs, nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(status.Breaches) != 1 || status.Breaches[0].Type != BreachYearly {
		t.Fatalf("expected a yearly breach, got %+v", status.Breaches)
	}
	if !status.Breaches[0].Overage.Equal(dec("10.00")) {
		t.Errorf("expected overage 10.00, got %s", status.Breaches[0].Overage)
	}
}

func TestEvaluateDegenerate(t *testing.T) {
	t.Run("no config means no breaches", func(t *testing.T) {
		categories := []models.Category{{Base: models.Base{ID: "x"}, Name: "X", MonthlyLimit: models.Some(dec("1.00"))}}
		status, err := Evaluate("2025-03", []models.Transaction{spend("a", "999.00", "2025-03-02", "x")}, categories, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.IsOverBudget {
			t.Errorf("expected no breach without config, got %+v", status.Breaches)
		}
	})

	t.Run("nothing to evaluate", func(t *testing.T) {
		status, err := Evaluate("2025-03", nil, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !status.TotalSpent.IsZero() || status.IsOverBudget || status.Breaches == nil || status.CategoryStatus == nil {
			t.Errorf("expected zero-valued status, got %+v", status)
		}
	})

	t.Run("foreign currency is excluded", func(t *testing.T) {
		usd := spend("u", "80.00", "2025-03-02")
		usd.Currency = "USD"
		cfg := &models.BudgetConfig{Currency: "GBP", MonthlyLimit: models.Some(dec("50.00"))}
		status, err := Evaluate("2025-03", []models.Transaction{usd}, nil, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !status.TotalSpent.IsZero() || status.IsOverBudget {
			t.Errorf("expected USD spend ignored, got %+v", status)
		}
	})
}
