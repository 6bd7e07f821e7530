package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/categorise"
	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/repository"
)

// categoryService handles categories, merchant rules and categorisation.
type categoryService struct {
	categories   repository.CategoryRepository
	rules        repository.MerchantRuleRepository
	transactions repository.TransactionRepository
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(repos *repository.Repositories) CategoryServicer {
	return &categoryService{
		categories:   repos.Categories,
		rules:        repos.Rules,
		transactions: repos.Transactions,
	}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if err := s.checkNameFree(userID, name, ""); err != nil {
		return nil, err
	}
	if err := checkLimit(in.MonthlyLimit); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID:       userID,
		Name:         name,
		Colour:       in.Colour,
		MonthlyLimit: in.MonthlyLimit,
	}
	if err := s.categories.Upsert(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) checkNameFree(userID, name, selfID string) error {
	existing, err := s.categories.FindByName(userID, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}
	return nil
}

func checkLimit(limit models.Optional[decimal.Decimal]) error {
	if v, ok := limit.Get(); ok && v.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must not be negative")
	}
	return nil
}

// GetCategories retrieves all categories for a user.
func (s *categoryService) GetCategories(userID string) ([]models.Category, error) {
	return s.categories.List(userID)
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	return s.categories.Get(userID, categoryID)
}

// UpdateCategory renames a category when a name is given and replaces its
// colour and limit.
func (s *categoryService) UpdateCategory(userID, categoryID string, in CategoryInput) (*models.Category, error) {
	category, err := s.categories.Get(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := checkLimit(in.MonthlyLimit); err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" && name != category.Name {
		if err := s.checkNameFree(userID, name, category.ID); err != nil {
			return nil, err
		}
		category.Name = name
	}
	category.Colour = in.Colour
	category.MonthlyLimit = in.MonthlyLimit

	if err := s.categories.Upsert(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deletes a category that no merchant rule points at.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	if _, err := s.categories.Get(userID, categoryID); err != nil {
		return err
	}

	count, err := s.rules.CountForCategory(userID, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}
	return s.categories.Remove(userID, categoryID)
}

func (s *categoryService) resolver(userID string) (*categorise.Resolver, error) {
	categories, err := s.categories.List(userID)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.List(userID)
	if err != nil {
		return nil, err
	}
	return categorise.NewResolver(categories, rules), nil
}

// ensureUncategorised returns the user's fallback category, creating it on
// first use.
func (s *categoryService) ensureUncategorised(userID string) (*models.Category, error) {
	existing, err := s.categories.FindByName(userID, models.UncategorisedName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrCategoryNotFound) {
		return nil, err
	}

	category := categorise.Uncategorised(userID)
	if err := s.categories.Upsert(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoriseTransaction resolves the category of one transaction.
func (s *categoryService) CategoriseTransaction(userID, transactionID string) (*categorise.Result, error) {
	tx, err := s.transactions.Get(userID, transactionID)
	if err != nil {
		return nil, err
	}
	r, err := s.resolver(userID)
	if err != nil {
		return nil, err
	}

	result := r.Categorise(*tx)
	if result.NeedsCreate() {
		fallback, err := s.ensureUncategorised(userID)
		if err != nil {
			return nil, err
		}
		result.Category = *fallback
	}
	return &result, nil
}

// BulkCategorise resolves the given transactions, or every transaction of
// the user when no ids are given.
func (s *categoryService) BulkCategorise(userID string, transactionIDs []string) (map[string]categorise.Result, error) {
	var txs []models.Transaction
	if len(transactionIDs) == 0 {
		all, err := s.transactions.List(userID, repository.TransactionFilter{})
		if err != nil {
			return nil, err
		}
		txs = all
	} else {
		txs = make([]models.Transaction, 0, len(transactionIDs))
		for _, id := range transactionIDs {
			tx, err := s.transactions.Get(userID, id)
			if err != nil {
				return nil, err
			}
			txs = append(txs, *tx)
		}
	}

	r, err := s.resolver(userID)
	if err != nil {
		return nil, err
	}
	results := r.BulkCategorise(txs)

	var fallback *models.Category
	for id, result := range results {
		if !result.NeedsCreate() {
			continue
		}
		if fallback == nil {
			if fallback, err = s.ensureUncategorised(userID); err != nil {
				return nil, err
			}
		}
		result.Category = *fallback
		results[id] = result
	}
	return results, nil
}

// SetTransactionCategory sets or clears a transaction's category override.
func (s *categoryService) SetTransactionCategory(userID, transactionID string, categoryID models.Optional[string]) (*models.Transaction, error) {
	tx, err := s.transactions.Get(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if id, ok := categoryID.Get(); ok {
		if _, err := s.categories.Get(userID, id); err != nil {
			return nil, err
		}
	}

	tx.CategoryID = categoryID
	if err := s.transactions.Upsert(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// AddMerchantRule appends a rule that outranks every existing rule.
func (s *categoryService) AddMerchantRule(userID, pattern, categoryID string) (*models.MerchantCategoryRule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "merchant pattern is required")
	}
	if _, err := s.categories.Get(userID, categoryID); err != nil {
		return nil, err
	}

	rules, err := s.rules.List(userID)
	if err != nil {
		return nil, err
	}
	rule := &models.MerchantCategoryRule{
		UserID:          userID,
		MerchantPattern: pattern,
		CategoryID:      categoryID,
		Priority:        categorise.NextRulePriority(rules),
	}
	if err := s.rules.Upsert(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetMerchantRules lists rules in insertion order.
func (s *categoryService) GetMerchantRules(userID string) ([]models.MerchantCategoryRule, error) {
	return s.rules.List(userID)
}

// DeleteMerchantRule deletes a rule.
func (s *categoryService) DeleteMerchantRule(userID, ruleID string) error {
	return s.rules.Remove(userID, ruleID)
}
