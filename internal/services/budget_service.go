package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/budget"
	"tally/internal/categorise"
	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/repository"
)

// budgetService handles budget configuration and evaluation.
type budgetService struct {
	budgets      repository.BudgetConfigRepository
	transactions repository.TransactionRepository
	categories   repository.CategoryRepository
	rules        repository.MerchantRuleRepository
	now          func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(repos *repository.Repositories) BudgetServicer {
	return &budgetService{
		budgets:      repos.Budgets,
		transactions: repos.Transactions,
		categories:   repos.Categories,
		rules:        repos.Rules,
		now:          time.Now,
	}
}

// GetConfig returns the user's configuration, or None if never saved.
func (s *budgetService) GetConfig(userID string) (models.Optional[models.BudgetConfig], error) {
	return s.budgets.Get(userID)
}

// SaveConfig replaces the user's configuration.
func (s *budgetService) SaveConfig(userID string, in BudgetConfigInput) (*models.BudgetConfig, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be a 3-letter code")
	}
	if err := checkLimit(in.MonthlyLimit); err != nil {
		return nil, err
	}
	if err := checkLimit(in.YearlyLimit); err != nil {
		return nil, err
	}
	for categoryID, limit := range in.PerCategoryLimits {
		if limit.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must not be negative")
		}
		if categoryID == budget.UncategorisedBucket {
			continue
		}
		if _, err := s.categories.Get(userID, categoryID); err != nil {
			return nil, err
		}
	}

	cfg := &models.BudgetConfig{
		UserID:            userID,
		Currency:          currency,
		MonthlyLimit:      in.MonthlyLimit,
		YearlyLimit:       in.YearlyLimit,
		PerCategoryLimits: in.PerCategoryLimits,
	}
	if err := s.budgets.Upsert(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

type budgetInputs struct {
	cfg          *models.BudgetConfig
	transactions []models.Transaction
	categories   []models.Category
}

// load fetches everything an evaluation of [from, to] needs. Transactions
// without an override take the category their merchant rule resolves to.
func (s *budgetService) load(userID string, from, to time.Time) (*budgetInputs, error) {
	stored, err := s.budgets.Get(userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions.List(userID, repository.TransactionFilter{
		From: models.Some(from),
		To:   models.Some(to),
	})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(userID)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.List(userID)
	if err != nil {
		return nil, err
	}

	resolver := categorise.NewResolver(categories, rules)
	for i := range txs {
		if txs[i].CategoryID.IsSome() {
			continue
		}
		if res := resolver.Categorise(txs[i]); res.Source == categorise.SourceRule {
			txs[i].CategoryID = models.Some(res.Category.ID)
		}
	}

	in := &budgetInputs{transactions: txs, categories: categories}
	if cfg, ok := stored.Get(); ok {
		in.cfg = &cfg
	}
	return in, nil
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// GetStatus evaluates one month ("YYYY-MM").
func (s *budgetService) GetStatus(userID, month string) (*budget.Status, error) {
	start, end, err := budget.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	in, err := s.load(userID, yearStart(start), end)
	if err != nil {
		return nil, err
	}
	return budget.Evaluate(month, in.transactions, in.categories, in.cfg)
}

// WillExceedOnAdd simulates adding an expense on date (default today).
func (s *budgetService) WillExceedOnAdd(userID string, amount decimal.Decimal, categoryID models.Optional[string], date models.Optional[time.Time]) (*budget.Projection, error) {
	if amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be non-zero")
	}
	if id, ok := categoryID.Get(); ok && id != budget.UncategorisedBucket {
		if _, err := s.categories.Get(userID, id); err != nil {
			return nil, err
		}
	}

	when := models.DateOnly(date.OrElse(s.now()))
	_, end, err := budget.MonthBounds(budget.MonthOf(when))
	if err != nil {
		return nil, err
	}
	in, err := s.load(userID, yearStart(when), end)
	if err != nil {
		return nil, err
	}

	projection, err := budget.WillExceedOnAdd(in.transactions, in.categories, in.cfg, amount, categoryID, when)
	if err != nil {
		return nil, err
	}
	return &projection, nil
}

// GetYearlySpending returns the monthly totals of a year.
func (s *budgetService) GetYearlySpending(userID string, year int) ([]budget.MonthTotal, error) {
	if year < 1 || year > 9999 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year is out of range")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	in, err := s.load(userID, from, to)
	if err != nil {
		return nil, err
	}
	return budget.YearlySpending(year, in.transactions, in.cfg)
}
