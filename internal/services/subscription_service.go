package services

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/recurring"
	"tally/internal/repository"
)

// subscriptionService handles tracked subscriptions.
type subscriptionService struct {
	subscriptions repository.SubscriptionRepository
	transactions  repository.TransactionRepository
	categories    repository.CategoryRepository
	patterns      PatternServicer
	matcher       *recurring.Detector
	duplicates    recurring.DuplicateOptions
}

// NewSubscriptionService creates a new SubscriptionServicer. cfg supplies the
// tolerances used to match new transactions to subscriptions.
func NewSubscriptionService(
	repos *repository.Repositories,
	patterns PatternServicer,
	cfg recurring.Config,
	duplicates recurring.DuplicateOptions,
) SubscriptionServicer {
	return &subscriptionService{
		subscriptions: repos.Subscriptions,
		transactions:  repos.Transactions,
		categories:    repos.Categories,
		patterns:      patterns,
		matcher:       recurring.NewDetector(cfg),
		duplicates:    duplicates,
	}
}

// CheckDuplicate runs the duplicate guard for a candidate against everything
// the user already tracks.
func (s *subscriptionService) CheckDuplicate(userID string, candidate models.Transaction) (*recurring.DuplicateCheckResult, error) {
	if strings.TrimSpace(candidate.MerchantName) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "merchant name is required")
	}
	subs, err := s.subscriptions.List(userID, repository.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions.List(userID, repository.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	result := recurring.CheckForDuplicates(candidate, subs, txs, s.duplicates)
	return &result, nil
}

func (s *subscriptionService) guard(userID string, candidate models.Transaction) error {
	check, err := s.CheckDuplicate(userID, candidate)
	if err != nil {
		return err
	}
	if check.IsDuplicate {
		return apperrors.WithMessage(apperrors.ErrDuplicateSubscription, check.Warning)
	}
	return nil
}

func (s *subscriptionService) checkCategory(userID string, categoryID models.Optional[string]) error {
	if id, ok := categoryID.Get(); ok {
		if _, err := s.categories.Get(userID, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateFromPattern tracks a detected pattern as a subscription and links the
// pattern's transactions to it.
func (s *subscriptionService) CreateFromPattern(userID, normalizedMerchant string, amount models.Optional[decimal.Decimal], categoryID models.Optional[string]) (*models.Subscription, error) {
	if err := s.checkCategory(userID, categoryID); err != nil {
		return nil, err
	}
	p, err := s.patterns.GetPattern(userID, normalizedMerchant, amount)
	if err != nil {
		return nil, err
	}
	if err := s.guard(userID, patternCandidate(*p)); err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:             userID,
		MerchantName:       p.RepresentativeMerchantName,
		NormalizedMerchant: p.NormalizedMerchant,
		Amount:             p.RepresentativeAmount,
		Currency:           p.Currency,
		Frequency:          string(p.Frequency),
		Status:             models.SubscriptionStatusActive,
		Confidence:         p.Confidence,
		LastPaymentDate:    p.LastDate,
		NextPaymentDate:    p.PredictedNextDate,
		CategoryID:         categoryID,
	}
	if err := s.subscriptions.Upsert(sub); err != nil {
		return nil, err
	}

	linked, err := s.transactions.LinkSubscription(userID, sub.ID, p.TransactionIDs())
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("subscription created from pattern",
		"user_id", userID,
		"subscription_id", sub.ID,
		"merchant", sub.NormalizedMerchant,
		"transactions", linked,
	)
	return sub, nil
}

// CreateSubscription tracks a manually entered subscription.
func (s *subscriptionService) CreateSubscription(userID string, in SubscriptionInput) (*models.Subscription, error) {
	merchant := strings.TrimSpace(in.MerchantName)
	if merchant == "" || recurring.Normalize(merchant) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "merchant name is required")
	}
	if in.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be non-zero")
	}
	if len(strings.TrimSpace(in.Currency)) != 3 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be a 3-letter code")
	}
	if !in.Frequency.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown frequency")
	}
	if in.LastPaymentDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "last payment date is required")
	}

	last := models.DateOnly(in.LastPaymentDate)
	next, ok := in.NextPaymentDate.Get()
	if ok {
		next = models.DateOnly(next)
		if !next.After(last) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "next payment date must be after the last payment")
		}
	} else {
		if in.Frequency == recurring.FrequencyCustom {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "custom subscriptions need a next payment date")
		}
		next = recurring.NextDate(last, in.Frequency, 0)
	}

	if err := s.checkCategory(userID, in.CategoryID); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	candidate := models.Transaction{MerchantName: merchant, Amount: in.Amount, Currency: currency, Date: last}
	if err := s.guard(userID, candidate); err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:             userID,
		MerchantName:       merchant,
		NormalizedMerchant: recurring.Normalize(merchant),
		Amount:             in.Amount,
		Currency:           currency,
		Frequency:          string(in.Frequency),
		Status:             models.SubscriptionStatusActive,
		Confidence:         1,
		LastPaymentDate:    last,
		NextPaymentDate:    next,
		CategoryID:         in.CategoryID,
	}
	if err := s.subscriptions.Upsert(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscriptions lists subscriptions with their monthly-equivalent cost.
func (s *subscriptionService) GetSubscriptions(userID string, status models.Optional[models.SubscriptionStatus]) ([]SubscriptionView, error) {
	subs, err := s.subscriptions.List(userID, repository.SubscriptionFilter{Status: status})
	if err != nil {
		return nil, err
	}
	views := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, SubscriptionView{Subscription: sub, MonthlyCost: MonthlyCost(sub)})
	}
	return views, nil
}

// GetSubscriptionByID retrieves a subscription by ID for a specific user.
func (s *subscriptionService) GetSubscriptionByID(userID, subscriptionID string) (*models.Subscription, error) {
	return s.subscriptions.Get(userID, subscriptionID)
}

// CancelSubscription marks a subscription cancelled. Cancelling twice is a
// no-op.
func (s *subscriptionService) CancelSubscription(userID, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.subscriptions.Get(userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive() {
		return sub, nil
	}
	sub.Status = models.SubscriptionStatusCancelled
	if err := s.subscriptions.Upsert(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// MatchTransaction links tx to the first active subscription whose schedule
// it continues, then advances that subscription's payment dates.
func (s *subscriptionService) MatchTransaction(userID string, tx *models.Transaction) (bool, error) {
	if tx.SubscriptionID.IsSome() {
		return false, nil
	}
	subs, err := s.subscriptions.List(userID, repository.SubscriptionFilter{
		Status: models.Some(models.SubscriptionStatusActive),
	})
	if err != nil {
		return false, err
	}

	for i := range subs {
		sub := &subs[i]
		if !s.matcher.MatchesPattern(*tx, subscriptionPattern(*sub)) {
			continue
		}

		tx.SubscriptionID = models.Some(sub.ID)
		if err := s.transactions.Upsert(tx); err != nil {
			return false, err
		}

		if tx.Date.After(sub.LastPaymentDate) {
			customDays := recurring.DaysBetween(sub.LastPaymentDate, sub.NextPaymentDate)
			sub.LastPaymentDate = models.DateOnly(tx.Date)
			sub.NextPaymentDate = recurring.NextDate(sub.LastPaymentDate, recurring.Frequency(sub.Frequency), customDays)
			if err := s.subscriptions.Upsert(sub); err != nil {
				return true, err
			}
		}
		return true, nil
	}
	return false, nil
}

// subscriptionPattern views a stored subscription as the pattern new
// transactions are matched against.
func subscriptionPattern(sub models.Subscription) recurring.RecurringPattern {
	return recurring.RecurringPattern{
		NormalizedMerchant:         recurring.Normalize(sub.MerchantName),
		RepresentativeMerchantName: sub.MerchantName,
		RepresentativeAmount:       sub.Amount,
		Currency:                   sub.Currency,
		Frequency:                  recurring.Frequency(sub.Frequency),
		Confidence:                 sub.Confidence,
		LastDate:                   sub.LastPaymentDate,
		PredictedNextDate:          sub.NextPaymentDate,
	}
}

// MonthlyCost is the subscription's amount expressed per month.
func MonthlyCost(sub models.Subscription) decimal.Decimal {
	p := recurring.RecurringPattern{
		RepresentativeAmount: sub.Amount,
		Frequency:            recurring.Frequency(sub.Frequency),
	}
	return p.MonthlyCost()
}
