package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/budget"
	"tally/internal/models"
	"tally/internal/testutil"
)

func TestSaveBudgetConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newServices(t, db)
	userID := testutil.NewUserID()
	groceries := testutil.CreateTestCategory(t, db, userID, "Groceries")

	t.Run("valid", func(t *testing.T) {
		cfg, err := svc.budgets.SaveConfig(userID, BudgetConfigInput{
			Currency:     "gbp",
			MonthlyLimit: models.Some(dec("500")),
			PerCategoryLimits: map[string]decimal.Decimal{
				groceries.ID:               dec("200"),
				budget.UncategorisedBucket: dec("50"),
			},
		})
		testutil.AssertNoError(t, err)
		if cfg.Currency != "GBP" {
			t.Errorf("expected GBP, got %s", cfg.Currency)
		}

		stored, err := svc.budgets.GetConfig(userID)
		testutil.AssertNoError(t, err)
		if got, ok := stored.Get(); !ok || len(got.PerCategoryLimits) != 2 {
			t.Errorf("expected stored config with 2 category limits, got %+v", stored)
		}
	})

	t.Run("unknown_category", func(t *testing.T) {
		_, err := svc.budgets.SaveConfig(userID, BudgetConfigInput{
			Currency:          "GBP",
			PerCategoryLimits: map[string]decimal.Decimal{testutil.NewUserID(): dec("1")},
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.budgets.SaveConfig(userID, BudgetConfigInput{Currency: "pounds"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.budgets.SaveConfig(userID, BudgetConfigInput{Currency: "GBP", YearlyLimit: models.Some(dec("-5"))})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetBudgetStatus(t *testing.T) {
	t.Run("no_config_never_breaches", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newServices(t, db)
		userID := testutil.NewUserID()
		testutil.CreateTestTransaction(t, db, userID, "Shop", "1000.00", testutil.Day(t, "2025-03-10"))

		status, err := svc.budgets.GetStatus(userID, "2025-03")
		testutil.AssertNoError(t, err)
		if status.IsOverBudget || !status.TotalSpent.Equal(dec("1000")) {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("monthly_boundary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newServices(t, db)
		userID := testutil.NewUserID()
		testutil.CreateTestBudgetConfig(t, db, userID, "100.00")
		testutil.CreateTestTransaction(t, db, userID, "Shop", "60.00", testutil.Day(t, "2025-03-01"))
		testutil.CreateTestTransaction(t, db, userID, "Shop", "40.00", testutil.Day(t, "2025-03-31"))

		status, err := svc.budgets.GetStatus(userID, "2025-03")
		testutil.AssertNoError(t, err)
		if status.IsOverBudget {
			t.Fatalf("expected spend equal to the limit to pass, got %+v", status.Breaches)
		}

		testutil.CreateTestTransaction(t, db, userID, "Shop", "10.00", testutil.Day(t, "2025-03-15"))
		status, err = svc.budgets.GetStatus(userID, "2025-03")
		testutil.AssertNoError(t, err)
		if len(status.Breaches) != 1 || !status.Breaches[0].Overage.Equal(dec("10")) {
			t.Errorf("expected one breach of 10.00, got %+v", status.Breaches)
		}
	})

	t.Run("rule_categorised_spend_counts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newServices(t, db)
		userID := testutil.NewUserID()
		groceries := testutil.CreateTestCategory(t, db, userID, "Groceries")
		testutil.CreateTestRule(t, db, userID, "tesco", groceries.ID, 1)
		_, err := svc.budgets.SaveConfig(userID, BudgetConfigInput{
			Currency:          "GBP",
			PerCategoryLimits: map[string]decimal.Decimal{groceries.ID: dec("50")},
		})
		testutil.AssertNoError(t, err)
		testutil.CreateTestTransaction(t, db, userID, "Tesco Express", "45.00", testutil.Day(t, "2025-03-03"))
		testutil.CreateTestTransaction(t, db, userID, "TESCO", "10.00", testutil.Day(t, "2025-03-04"))

		status, err := svc.budgets.GetStatus(userID, "2025-03")
		testutil.AssertNoError(t, err)
		if len(status.Breaches) != 1 || status.Breaches[0].CategoryID != groceries.ID {
			t.Errorf("expected a groceries breach, got %+v", status.Breaches)
		}
	})

	t.Run("invalid_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newServices(t, db)

		_, err := svc.budgets.GetStatus(testutil.NewUserID(), "March")
		testutil.AssertAppError(t, err, "INVALID_MONTH")
	})
}

func TestWillExceedOnAdd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newServices(t, db)
	userID := testutil.NewUserID()
	testutil.CreateTestBudgetConfig(t, db, userID, "100.00")
	// fixedNow is 2025-06-01, so projections default to June.
	testutil.CreateTestTransaction(t, db, userID, "Shop", "95.00", testutil.Day(t, "2025-06-01"))
	testutil.CreateTestTransaction(t, db, userID, "Shop", "95.00", testutil.Day(t, "2025-05-20"))

	p, err := svc.budgets.WillExceedOnAdd(userID, dec("5.00"), models.None[string](), models.None[time.Time]())
	testutil.AssertNoError(t, err)
	if p.WillExceed {
		t.Errorf("expected reaching the limit exactly to pass, got %q", p.Reason)
	}

	p, err = svc.budgets.WillExceedOnAdd(userID, dec("5.01"), models.None[string](), models.None[time.Time]())
	testutil.AssertNoError(t, err)
	if !p.WillExceed || p.Reason == "" {
		t.Errorf("expected a monthly breach with a reason, got %+v", p)
	}

	p, err = svc.budgets.WillExceedOnAdd(userID, dec("5.01"), models.None[string](), models.Some(testutil.Day(t, "2025-07-01")))
	testutil.AssertNoError(t, err)
	if p.WillExceed {
		t.Error("expected an empty July to have room")
	}

	_, err = svc.budgets.WillExceedOnAdd(userID, dec("0"), models.None[string](), models.None[time.Time]())
	testutil.AssertAppError(t, err, "INVALID_INPUT")
	_, err = svc.budgets.WillExceedOnAdd(userID, dec("1"), models.Some(testutil.NewUserID()), models.None[time.Time]())
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestGetYearlySpending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newServices(t, db)
	userID := testutil.NewUserID()
	testutil.CreateTestTransaction(t, db, userID, "Shop", "10.00", testutil.Day(t, "2025-01-31"))
	testutil.CreateTestTransaction(t, db, userID, "Shop", "5.00", testutil.Day(t, "2025-12-31"))
	testutil.CreateTestTransaction(t, db, userID, "Shop", "99.00", testutil.Day(t, "2026-01-01"))

	totals, err := svc.budgets.GetYearlySpending(userID, 2025)
	testutil.AssertNoError(t, err)
	if len(totals) != 12 || !totals[0].Total.Equal(dec("10")) || !totals[11].Total.Equal(dec("5")) {
		t.Errorf("unexpected totals %+v", totals)
	}

	_, err = svc.budgets.GetYearlySpending(userID, 0)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
