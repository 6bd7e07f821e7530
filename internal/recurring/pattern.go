package recurring

import (
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

// Detection defaults.
const (
	DefaultLookbackDays           = 365
	DefaultMinTransactions        = 2
	DefaultMinConfidence          = 0.3
	DefaultAmountTolerancePercent = 20.0
	DefaultPriceChangePercent     = 5.0
)

// Config tunes pattern detection. Zero-valued fields fall back to the
// defaults above, except MinConfidence: zero disables the threshold and a
// negative value takes DefaultMinConfidence.
type Config struct {
	// LookbackDays limits detection to transactions this recent.
	LookbackDays int
	// MinTransactions is the smallest group that can form a pattern.
	MinTransactions int
	// MinConfidence drops patterns scoring below it.
	MinConfidence float64
	// AmountTolerancePercent is how far amounts may drift and still belong
	// to the same pattern.
	AmountTolerancePercent float64
	// IntervalToleranceDays bounds cadence classification and how far a new
	// charge may land from the predicted date in MatchesPattern.
	IntervalToleranceDays int
	// PriceChangePercent is the consecutive-amount step that raises the
	// price_change flag. It must stay below AmountTolerancePercent, or
	// steps inside one amount run (9.99 to 10.99) go unreported.
	PriceChangePercent float64
	// AllowCustom keeps patterns whose cadence matches no bucket.
	AllowCustom bool
	// Now anchors the lookback window. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the detection defaults.
func DefaultConfig() Config {
	return Config{MinConfidence: DefaultMinConfidence}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.LookbackDays <= 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.MinTransactions < 2 {
		c.MinTransactions = DefaultMinTransactions
	}
	if c.MinConfidence < 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.AmountTolerancePercent <= 0 {
		c.AmountTolerancePercent = DefaultAmountTolerancePercent
	}
	if c.IntervalToleranceDays <= 0 {
		c.IntervalToleranceDays = DefaultIntervalToleranceDays
	}
	if c.PriceChangePercent <= 0 {
		c.PriceChangePercent = DefaultPriceChangePercent
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// RecurringPattern is a group of transactions that looks like a recurring
// payment. Frequency, Confidence and Flags are all derived from
// Transactions, which are ordered by date ascending.
type RecurringPattern struct {
	NormalizedMerchant         string               `json:"normalized_merchant"`
	RepresentativeMerchantName string               `json:"representative_merchant_name"`
	RepresentativeAmount       decimal.Decimal      `json:"representative_amount"`
	Currency                   string               `json:"currency"`
	AmountVariance             float64              `json:"amount_variance"`
	Frequency                  Frequency            `json:"frequency"`
	IntervalDays               int                  `json:"interval_days"`
	MatchedReason              string               `json:"matched_reason"`
	Confidence                 float64              `json:"confidence"`
	Factors                    Factors              `json:"factors"`
	LastDate                   time.Time            `json:"last_date"`
	PredictedNextDate          time.Time            `json:"predicted_next_date"`
	Transactions               []models.Transaction `json:"transactions"`
	Flags                      []Flag               `json:"flags"`
}

// MonthlyCost is the pattern's representative amount expressed per month.
// Custom cadences are converted through their median interval.
func (p RecurringPattern) MonthlyCost() decimal.Decimal {
	factor := decimal.NewFromFloat(p.Frequency.MonthlyFactor())
	if p.Frequency == FrequencyCustom && p.IntervalDays > 0 {
		factor = decimal.NewFromFloat(averageMonthDays / float64(p.IntervalDays))
	}
	return p.RepresentativeAmount.Abs().Mul(factor).Round(2)
}

// TransactionIDs returns the ids of the pattern's transactions in date order.
func (p RecurringPattern) TransactionIDs() []string {
	ids := make([]string, len(p.Transactions))
	for i, tx := range p.Transactions {
		ids[i] = tx.ID
	}
	return ids
}
