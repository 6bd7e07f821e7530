package recurring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

// DefaultDuplicateAmountTolerancePercent is how close an existing
// subscription's amount must be to count as the same subscription.
const DefaultDuplicateAmountTolerancePercent = 15.0

// DuplicateOptions tunes CheckForDuplicates.
type DuplicateOptions struct {
	AmountTolerancePercent float64
	// CheckActiveOnly ignores cancelled subscriptions.
	CheckActiveOnly bool
}

// DefaultDuplicateOptions returns a 15% tolerance over active subscriptions.
func DefaultDuplicateOptions() DuplicateOptions {
	return DuplicateOptions{
		AmountTolerancePercent: DefaultDuplicateAmountTolerancePercent,
		CheckActiveOnly:        true,
	}
}

// DuplicateCheckResult reports whether tracking a merchant again would
// duplicate an existing subscription.
type DuplicateCheckResult struct {
	IsDuplicate          bool                                 `json:"is_duplicate"`
	ExistingSubscription models.Optional[models.Subscription] `json:"existing_subscription"`
	ExistingTransactions []models.Transaction                 `json:"existing_transactions"`
	MerchantName         string                               `json:"merchant_name"`
	NormalizedMerchant   string                               `json:"normalized_merchant"`
	Warning              string                               `json:"warning,omitempty"`
}

// CheckForDuplicates looks for an existing subscription to the same merchant
// at a similar amount, and for other transactions of the merchant that are
// already linked to a subscription. It is advisory: callers decide whether
// to refuse the new subscription. A zero candidate amount matches on
// merchant alone.
func CheckForDuplicates(tx models.Transaction, subs []models.Subscription, existing []models.Transaction, opts DuplicateOptions) DuplicateCheckResult {
	if opts.AmountTolerancePercent <= 0 {
		opts.AmountTolerancePercent = DefaultDuplicateAmountTolerancePercent
	}

	key := Normalize(tx.MerchantName)
	result := DuplicateCheckResult{
		MerchantName:         tx.MerchantName,
		NormalizedMerchant:   key,
		ExistingTransactions: []models.Transaction{},
	}

	var best *models.Subscription
	var bestDiff decimal.Decimal
	for i := range subs {
		sub := &subs[i]
		if opts.CheckActiveOnly && !sub.IsActive() {
			continue
		}
		if Normalize(sub.MerchantName) != key {
			continue
		}
		if !tx.Amount.IsZero() && !withinPercent(sub.Amount, tx.Amount, opts.AmountTolerancePercent) {
			continue
		}
		diff := sub.Amount.Abs().Sub(tx.Amount.Abs()).Abs()
		if best == nil || diff.LessThan(bestDiff) {
			best, bestDiff = sub, diff
		}
	}
	if best != nil {
		result.ExistingSubscription = models.Some(*best)
	}

	for _, other := range existing {
		if other.ID != "" && other.ID == tx.ID {
			continue
		}
		if !other.SubscriptionID.IsSome() {
			continue
		}
		if Normalize(other.MerchantName) == key {
			result.ExistingTransactions = append(result.ExistingTransactions, other)
		}
	}

	result.IsDuplicate = best != nil || len(result.ExistingTransactions) > 0
	result.Warning = duplicateWarning(tx.MerchantName, best, len(result.ExistingTransactions))
	return result
}

func duplicateWarning(merchant string, sub *models.Subscription, linked int) string {
	var parts []string
	if sub != nil {
		state := "an active"
		if !sub.IsActive() {
			state = "a cancelled"
		}
		parts = append(parts, fmt.Sprintf("There is already %s subscription for %s (%s %s, %s).",
			state, sub.MerchantName, sub.Amount.StringFixed(2), sub.Currency, sub.Frequency))
	}
	if linked > 0 {
		noun := "transactions are"
		if linked == 1 {
			noun = "transaction is"
		}
		parts = append(parts, fmt.Sprintf("%d other %s for %s already linked to a subscription.", linked, noun, merchant))
	}
	return strings.Join(parts, " ")
}
