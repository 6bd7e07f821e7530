package services

import (
	"errors"
	"strings"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/repository"
	"tally/internal/uuid"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	transactions  repository.TransactionRepository
	categories    repository.CategoryRepository
	subscriptions SubscriptionServicer
}

// NewTransactionService creates a new TransactionServicer. New transactions
// are matched against the user's active subscriptions.
func NewTransactionService(transactions repository.TransactionRepository, categories repository.CategoryRepository, subscriptions SubscriptionServicer) TransactionServicer {
	return &transactionService{transactions: transactions, categories: categories, subscriptions: subscriptions}
}

func validateTransactionInput(in TransactionInput) error {
	if in.ID != "" && !uuid.IsValid(in.ID) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "id must be a UUID")
	}
	if strings.TrimSpace(in.MerchantName) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "merchant name is required")
	}
	if in.Amount.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be non-zero")
	}
	if in.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if len(strings.TrimSpace(in.Currency)) != 3 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be a 3-letter code")
	}
	return nil
}

// CreateTransaction validates and stores a transaction, then links it to a
// matching active subscription if there is one.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionInput(in); err != nil {
		return nil, err
	}
	if id, ok := in.CategoryID.Get(); ok {
		if _, err := s.categories.Get(userID, id); err != nil {
			return nil, err
		}
	}

	tx := &models.Transaction{
		Base:         models.Base{ID: in.ID},
		UserID:       userID,
		MerchantName: strings.TrimSpace(in.MerchantName),
		Amount:       in.Amount,
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		Date:         models.DateOnly(in.Date),
		AccountID:    in.AccountID,
		Pending:      in.Pending,
		CategoryID:   in.CategoryID,
	}
	if err := s.transactions.Upsert(tx); err != nil {
		return nil, err
	}

	s.match(userID, tx)
	return tx, nil
}

// IngestTransactions bulk-upserts transactions from the bank-sync
// collaborator. Invalid records are skipped. Re-sent records keep their
// category override and subscription link.
func (s *transactionService) IngestTransactions(userID string, in []TransactionInput) (*IngestResult, error) {
	result := &IngestResult{IDs: []string{}}
	for _, item := range in {
		if err := validateTransactionInput(item); err != nil {
			result.Skipped++
			continue
		}

		tx := &models.Transaction{
			Base:         models.Base{ID: item.ID},
			UserID:       userID,
			MerchantName: strings.TrimSpace(item.MerchantName),
			Amount:       item.Amount,
			Currency:     strings.ToUpper(strings.TrimSpace(item.Currency)),
			Date:         models.DateOnly(item.Date),
			AccountID:    item.AccountID,
			Pending:      item.Pending,
			CategoryID:   item.CategoryID,
		}
		if item.ID != "" {
			existing, err := s.transactions.Get(userID, item.ID)
			switch {
			case err == nil:
				if !tx.CategoryID.IsSome() {
					tx.CategoryID = existing.CategoryID
				}
				tx.SubscriptionID = existing.SubscriptionID
			case !errors.Is(err, apperrors.ErrTransactionNotFound):
				return nil, err
			}
		}

		if err := s.transactions.Upsert(tx); err != nil {
			if errors.Is(err, apperrors.ErrTransactionNotFound) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Upserted++
		result.IDs = append(result.IDs, tx.ID)
		if s.match(userID, tx) {
			result.Matched++
		}
	}

	logger.Get().Infow("ingested transactions",
		"user_id", userID,
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"matched", result.Matched,
	)
	return result, nil
}

// match links tx to a subscription. A failure is logged; the transaction
// itself is already stored.
func (s *transactionService) match(userID string, tx *models.Transaction) bool {
	if s.subscriptions == nil || tx.SubscriptionID.IsSome() {
		return false
	}
	matched, err := s.subscriptions.MatchTransaction(userID, tx)
	if err != nil {
		logger.Get().Warnw("failed to match transaction to subscription",
			"error", err,
			"user_id", userID,
			"transaction_id", tx.ID,
		)
		return false
	}
	return matched
}

// GetTransactions retrieves a paginated, filtered list of transactions.
func (s *transactionService) GetTransactions(userID string, filter repository.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	from, hasFrom := filter.From.Get()
	to, hasTo := filter.To.Get()
	if hasFrom && hasTo && to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not be before from_date")
	}
	return s.transactions.Page(userID, filter, page)
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return s.transactions.Get(userID, transactionID)
}
