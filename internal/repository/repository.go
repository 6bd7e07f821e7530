// Package repository persists the records the analysis reads and the
// subscriptions and overrides it produces. Every query is scoped to a user.
package repository

import (
	"time"

	"tally/internal/models"
	"tally/internal/pagination"
)

// TransactionFilter narrows transaction listings. Empty fields match all.
type TransactionFilter struct {
	From           models.Optional[time.Time]
	To             models.Optional[time.Time]
	Merchant       string
	CategoryID     models.Optional[string]
	SubscriptionID models.Optional[string]
}

// TransactionRepository stores bank-synced transactions.
type TransactionRepository interface {
	List(userID string, filter TransactionFilter) ([]models.Transaction, error)
	Page(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	Get(userID, id string) (*models.Transaction, error)
	Upsert(tx *models.Transaction) error
	LinkSubscription(userID, subscriptionID string, ids []string) (int64, error)
}

// CategoryRepository stores spending categories.
type CategoryRepository interface {
	List(userID string) ([]models.Category, error)
	Get(userID, id string) (*models.Category, error)
	FindByName(userID, name string) (*models.Category, error)
	Upsert(category *models.Category) error
	Remove(userID, id string) error
}

// MerchantRuleRepository stores merchant-to-category rules. List returns
// rules in insertion order.
type MerchantRuleRepository interface {
	List(userID string) ([]models.MerchantCategoryRule, error)
	Get(userID, id string) (*models.MerchantCategoryRule, error)
	Upsert(rule *models.MerchantCategoryRule) error
	Remove(userID, id string) error
	CountForCategory(userID, categoryID string) (int64, error)
}

// SubscriptionFilter narrows subscription listings.
type SubscriptionFilter struct {
	Status models.Optional[models.SubscriptionStatus]
}

// SubscriptionRepository stores tracked subscriptions.
type SubscriptionRepository interface {
	List(userID string, filter SubscriptionFilter) ([]models.Subscription, error)
	Get(userID, id string) (*models.Subscription, error)
	Upsert(sub *models.Subscription) error
}

// BudgetConfigRepository stores at most one budget configuration per user.
type BudgetConfigRepository interface {
	Get(userID string) (models.Optional[models.BudgetConfig], error)
	Upsert(cfg *models.BudgetConfig) error
}

// Repositories bundles every repository for wiring.
type Repositories struct {
	Transactions  TransactionRepository
	Categories    CategoryRepository
	Rules         MerchantRuleRepository
	Subscriptions SubscriptionRepository
	Budgets       BudgetConfigRepository
}
