package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/recurring"
	"tally/internal/repository"
)

var fixedNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func detectionConfig() recurring.Config {
	return recurring.Config{MinConfidence: recurring.DefaultMinConfidence, Now: func() time.Time { return fixedNow }}
}

type serviceSet struct {
	repos         *repository.Repositories
	transactions  TransactionServicer
	patterns      PatternServicer
	subscriptions SubscriptionServicer
	categories    CategoryServicer
	budgets       BudgetServicer
}

func newServices(t *testing.T, db *gorm.DB) *serviceSet {
	t.Helper()

	repos := repository.NewGormRepositories(db)
	patterns := NewPatternService(repos.Transactions, repos.Subscriptions, detectionConfig(), recurring.DefaultDuplicateOptions())
	subscriptions := NewSubscriptionService(repos, patterns, detectionConfig(), recurring.DefaultDuplicateOptions())
	budgets := NewBudgetService(repos)
	budgets.(*budgetService).now = func() time.Time { return fixedNow }

	return &serviceSet{
		repos:         repos,
		transactions:  NewTransactionService(repos.Transactions, repos.Categories, subscriptions),
		patterns:      patterns,
		subscriptions: subscriptions,
		categories:    NewCategoryService(repos),
		budgets:       budgets,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
