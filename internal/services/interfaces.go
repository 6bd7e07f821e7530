package services

import (
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/budget"
	"tally/internal/categorise"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/recurring"
	"tally/internal/repository"
)

// TransactionInput is a transaction as supplied by a client or the
// bank-sync collaborator. ID is optional; a known ID updates the record.
type TransactionInput struct {
	ID           string
	MerchantName string
	Amount       decimal.Decimal
	Currency     string
	Date         time.Time
	AccountID    models.Optional[string]
	Pending      bool
	CategoryID   models.Optional[string]
}

// IngestResult summarises a bulk upsert.
type IngestResult struct {
	Upserted int      `json:"upserted"`
	Skipped  int      `json:"skipped"`
	Matched  int      `json:"matched"`
	IDs      []string `json:"ids"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	IngestTransactions(userID string, in []TransactionInput) (*IngestResult, error)
	GetTransactions(userID string, filter repository.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
}

// DetectedPattern is a recurring pattern annotated for the user.
type DetectedPattern struct {
	recurring.RecurringPattern
	MonthlyCost    decimal.Decimal `json:"monthly_cost"`
	AlreadyTracked bool            `json:"already_tracked"`
}

// PatternServicer defines the contract for recurring-pattern detection.
type PatternServicer interface {
	DetectPatterns(userID string) ([]DetectedPattern, error)
	GetPattern(userID, normalizedMerchant string, amount models.Optional[decimal.Decimal]) (*recurring.RecurringPattern, error)
}

// SubscriptionInput is a manually entered subscription.
type SubscriptionInput struct {
	MerchantName    string
	Amount          decimal.Decimal
	Currency        string
	Frequency       recurring.Frequency
	LastPaymentDate time.Time
	NextPaymentDate models.Optional[time.Time]
	CategoryID      models.Optional[string]
}

// SubscriptionView is a subscription with its monthly-equivalent cost.
type SubscriptionView struct {
	models.Subscription
	MonthlyCost decimal.Decimal `json:"monthly_cost"`
}

// SubscriptionServicer defines the contract for tracked subscriptions. Every
// create path runs the duplicate check first.
type SubscriptionServicer interface {
	CreateFromPattern(userID, normalizedMerchant string, amount models.Optional[decimal.Decimal], categoryID models.Optional[string]) (*models.Subscription, error)
	CreateSubscription(userID string, in SubscriptionInput) (*models.Subscription, error)
	CheckDuplicate(userID string, candidate models.Transaction) (*recurring.DuplicateCheckResult, error)
	GetSubscriptions(userID string, status models.Optional[models.SubscriptionStatus]) ([]SubscriptionView, error)
	GetSubscriptionByID(userID, subscriptionID string) (*models.Subscription, error)
	CancelSubscription(userID, subscriptionID string) (*models.Subscription, error)
	MatchTransaction(userID string, tx *models.Transaction) (bool, error)
}

// CategoryInput carries category fields. Empty Name leaves the name unchanged
// on update.
type CategoryInput struct {
	Name         string
	Colour       models.Optional[string]
	MonthlyLimit models.Optional[decimal.Decimal]
}

// CategoryServicer defines the contract for categories, merchant rules and
// transaction categorisation.
type CategoryServicer interface {
	CreateCategory(userID string, in CategoryInput) (*models.Category, error)
	GetCategories(userID string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, in CategoryInput) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error

	CategoriseTransaction(userID, transactionID string) (*categorise.Result, error)
	BulkCategorise(userID string, transactionIDs []string) (map[string]categorise.Result, error)
	SetTransactionCategory(userID, transactionID string, categoryID models.Optional[string]) (*models.Transaction, error)

	AddMerchantRule(userID, pattern, categoryID string) (*models.MerchantCategoryRule, error)
	GetMerchantRules(userID string) ([]models.MerchantCategoryRule, error)
	DeleteMerchantRule(userID, ruleID string) error
}

// BudgetConfigInput replaces a user's budget configuration.
type BudgetConfigInput struct {
	Currency          string
	MonthlyLimit      models.Optional[decimal.Decimal]
	YearlyLimit       models.Optional[decimal.Decimal]
	PerCategoryLimits map[string]decimal.Decimal
}

// BudgetServicer defines the contract for budget configuration and evaluation.
type BudgetServicer interface {
	GetConfig(userID string) (models.Optional[models.BudgetConfig], error)
	SaveConfig(userID string, in BudgetConfigInput) (*models.BudgetConfig, error)
	GetStatus(userID, month string) (*budget.Status, error)
	WillExceedOnAdd(userID string, amount decimal.Decimal, categoryID models.Optional[string], date models.Optional[time.Time]) (*budget.Projection, error)
	GetYearlySpending(userID string, year int) ([]budget.MonthTotal, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
