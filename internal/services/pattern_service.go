package services

import (
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/recurring"
	"tally/internal/repository"
)

// patternService runs recurring-payment detection over a user's history.
type patternService struct {
	transactions  repository.TransactionRepository
	subscriptions repository.SubscriptionRepository
	cfg           recurring.Config
	duplicates    recurring.DuplicateOptions
}

// NewPatternService creates a new PatternServicer.
func NewPatternService(
	transactions repository.TransactionRepository,
	subscriptions repository.SubscriptionRepository,
	cfg recurring.Config,
	duplicates recurring.DuplicateOptions,
) PatternServicer {
	return &patternService{
		transactions:  transactions,
		subscriptions: subscriptions,
		cfg:           cfg,
		duplicates:    duplicates,
	}
}

func (s *patternService) detect(userID string) ([]recurring.RecurringPattern, error) {
	detector := recurring.NewDetector(s.cfg, recurring.WithGroupErrorHandler(func(merchant string, err error) {
		logger.Get().Warnw("skipped merchant group during pattern detection",
			"error", err,
			"user_id", userID,
			"merchant", merchant,
		)
	}))

	cfg := detector.Config()
	from := models.DateOnly(cfg.Now()).AddDate(0, 0, -cfg.LookbackDays)
	txs, err := s.transactions.List(userID, repository.TransactionFilter{From: models.Some(from)})
	if err != nil {
		return nil, err
	}
	return detector.DetectPatterns(txs), nil
}

// DetectPatterns returns the user's recurring patterns, highest confidence
// first, each marked when a subscription already tracks it.
func (s *patternService) DetectPatterns(userID string) ([]DetectedPattern, error) {
	patterns, err := s.detect(userID)
	if err != nil {
		return nil, err
	}
	subs, err := s.subscriptions.List(userID, repository.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	out := make([]DetectedPattern, 0, len(patterns))
	for _, p := range patterns {
		check := recurring.CheckForDuplicates(patternCandidate(p), subs, p.Transactions, s.duplicates)
		out = append(out, DetectedPattern{
			RecurringPattern: p,
			MonthlyCost:      p.MonthlyCost(),
			AlreadyTracked:   check.IsDuplicate,
		})
	}
	return out, nil
}

// GetPattern returns the detected pattern for a merchant. With several
// patterns for one merchant, the one closest to amount wins; without an
// amount, the most confident.
func (s *patternService) GetPattern(userID, normalizedMerchant string, amount models.Optional[decimal.Decimal]) (*recurring.RecurringPattern, error) {
	key := recurring.Normalize(normalizedMerchant)
	if key == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "merchant is required")
	}

	patterns, err := s.detect(userID)
	if err != nil {
		return nil, err
	}

	var best *recurring.RecurringPattern
	var bestDiff decimal.Decimal
	for i := range patterns {
		p := &patterns[i]
		if p.NormalizedMerchant != key {
			continue
		}
		want, ok := amount.Get()
		if !ok {
			return p, nil
		}
		diff := p.RepresentativeAmount.Sub(want.Abs()).Abs()
		if best == nil || diff.LessThan(bestDiff) {
			best, bestDiff = p, diff
		}
	}
	if best == nil {
		return nil, apperrors.ErrPatternNotFound
	}
	return best, nil
}

// patternCandidate is the transaction a new subscription for p would be
// created from.
func patternCandidate(p recurring.RecurringPattern) models.Transaction {
	return models.Transaction{
		MerchantName: p.RepresentativeMerchantName,
		Amount:       p.RepresentativeAmount,
		Currency:     p.Currency,
		Date:         p.LastDate,
	}
}
