package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tally/internal/models"
	"tally/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user id. Users live in the identity provider,
// so there is no user row to create.
func NewUserID() string {
	return uuid.New()
}

// Day parses a YYYY-MM-DD date, failing the test on bad input.
func Day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

// CreateTestCategory creates a category with the given name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID, name string) *models.Category {
	t.Helper()

	if name == "" {
		name = fmt.Sprintf("Test Category %d", nextID())
	}
	category := &models.Category{UserID: userID, Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestRule creates a merchant rule.
func CreateTestRule(t *testing.T, db *gorm.DB, userID, pattern, categoryID string, priority int) *models.MerchantCategoryRule {
	t.Helper()

	rule := &models.MerchantCategoryRule{
		UserID:          userID,
		MerchantPattern: pattern,
		CategoryID:      categoryID,
		Priority:        priority,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestTransaction creates a GBP transaction. amount is a decimal string.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, merchant, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:       userID,
		MerchantName: merchant,
		Amount:       decimal.RequireFromString(amount),
		Currency:     "GBP",
		Date:         models.DateOnly(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestMonthlyHistory creates count transactions for merchant, 30 days
// apart, ending on last.
func CreateTestMonthlyHistory(t *testing.T, db *gorm.DB, userID, merchant, amount string, last time.Time, count int) []*models.Transaction {
	t.Helper()

	txs := make([]*models.Transaction, 0, count)
	for i := count - 1; i >= 0; i-- {
		txs = append(txs, CreateTestTransaction(t, db, userID, merchant, amount, last.AddDate(0, 0, -30*i)))
	}
	return txs
}

// CreateTestSubscription creates an active monthly subscription.
func CreateTestSubscription(t *testing.T, db *gorm.DB, userID, merchant, normalized, amount string) *models.Subscription {
	t.Helper()

	now := models.DateOnly(time.Now())
	sub := &models.Subscription{
		UserID:             userID,
		MerchantName:       merchant,
		NormalizedMerchant: normalized,
		Amount:             decimal.RequireFromString(amount),
		Currency:           "GBP",
		Frequency:          "monthly",
		Status:             models.SubscriptionStatusActive,
		Confidence:         0.9,
		LastPaymentDate:    now,
		NextPaymentDate:    now.AddDate(0, 1, 0),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}

// CreateTestBudgetConfig creates a GBP budget config with a monthly limit.
func CreateTestBudgetConfig(t *testing.T, db *gorm.DB, userID, monthlyLimit string) *models.BudgetConfig {
	t.Helper()

	cfg := &models.BudgetConfig{
		UserID:       userID,
		Currency:     "GBP",
		MonthlyLimit: models.Some(decimal.RequireFromString(monthlyLimit)),
	}
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("failed to create test budget config: %v", err)
	}
	return cfg
}
