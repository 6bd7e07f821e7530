package recurring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

// GroupErrorHandler receives failures raised while scoring one merchant
// group. The remaining groups are still evaluated.
type GroupErrorHandler func(normalizedMerchant string, err error)

// Detector finds recurring patterns in transaction histories. It holds no
// mutable state and is safe for concurrent use.
type Detector struct {
	cfg          Config
	onGroupError GroupErrorHandler
	score        func(intervals []int, amounts []float64, f Frequency, sampleSize int) (float64, Factors)
}

// Option configures a Detector.
type Option func(*Detector)

// WithGroupErrorHandler reports per-group failures to fn.
func WithGroupErrorHandler(fn GroupErrorHandler) Option {
	return func(d *Detector) { d.onGroupError = fn }
}

// NewDetector creates a Detector. Zero-valued config fields take defaults.
func NewDetector(cfg Config, opts ...Option) *Detector {
	d := &Detector{cfg: cfg.withDefaults(), score: Score}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// DetectPatterns runs detection with the given config.
func DetectPatterns(txs []models.Transaction, cfg Config) []RecurringPattern {
	return NewDetector(cfg).DetectPatterns(txs)
}

type groupKey struct {
	merchant string
	currency string
}

// DetectPatterns groups transactions by normalized merchant and currency,
// splits each group into concurrent plans, and keeps every plan that
// classifies into a cadence with enough confidence. Results are ordered by
// confidence descending, then merchant.
func (d *Detector) DetectPatterns(txs []models.Transaction) []RecurringPattern {
	cutoff := models.DateOnly(d.cfg.Now()).AddDate(0, 0, -d.cfg.LookbackDays)

	groups := make(map[groupKey][]models.Transaction)
	for _, tx := range txs {
		if !tx.Valid() || models.DateOnly(tx.Date).Before(cutoff) {
			continue
		}
		key := groupKey{
			merchant: Normalize(tx.MerchantName),
			currency: strings.ToUpper(tx.Currency),
		}
		groups[key] = append(groups[key], tx)
	}

	patterns := make([]RecurringPattern, 0)
	for key, group := range groups {
		if len(group) < d.cfg.MinTransactions {
			continue
		}
		for _, cluster := range d.splitPlans(group) {
			p, ok, err := d.safeAnalyse(key, cluster)
			if err != nil {
				if d.onGroupError != nil {
					d.onGroupError(key.merchant, err)
				}
				continue
			}
			if ok {
				patterns = append(patterns, p)
			}
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		a, b := patterns[i], patterns[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.NormalizedMerchant != b.NormalizedMerchant {
			return a.NormalizedMerchant < b.NormalizedMerchant
		}
		return a.RepresentativeAmount.LessThan(b.RepresentativeAmount)
	})
	return patterns
}

// splitPlans separates the plans billed at one merchant. Amounts are first
// clustered into price runs; runs that follow one another in time and keep
// the cadence are then chained back together, so a price change stays in
// one plan while overlapping runs (two tiers billed side by side) do not.
func (d *Detector) splitPlans(group []models.Transaction) [][]models.Transaction {
	runs := clusterByAmount(group, d.cfg.AmountTolerancePercent)
	for _, run := range runs {
		sortByDate(run)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i][0].Date.Before(runs[j][0].Date)
	})

	var plans [][]models.Transaction
	for _, run := range runs {
		best := -1
		bestFit := 0
		for i, plan := range plans {
			fit, ok := continuesPlan(plan, run, d.cfg.IntervalToleranceDays)
			if ok && (best < 0 || fit < bestFit) {
				best, bestFit = i, fit
			}
		}
		if best < 0 {
			plans = append(plans, run)
			continue
		}
		plans[best] = append(plans[best], run...)
	}
	return plans
}

// continuesPlan reports whether next picks up where plan left off: it starts
// after plan's last charge, and the gap between them matches the cadence of
// whichever side has one, allowing a single skipped cycle. fit is the gap's
// distance from that cadence.
func continuesPlan(plan, next []models.Transaction, toleranceDays int) (fit int, ok bool) {
	last := plan[len(plan)-1].Date
	first := next[0].Date
	if models.DateOnly(first).Before(models.DateOnly(last)) {
		return 0, false
	}

	var reference int
	switch {
	case len(plan) >= 2:
		reference = lowerMedian(Intervals(transactionDates(plan)))
	case len(next) >= 2:
		reference = lowerMedian(Intervals(transactionDates(next)))
	default:
		return 0, false
	}
	if reference < 1 {
		return 0, false
	}

	gap := DaysBetween(last, first)
	if gap < reference-toleranceDays || gap > 2*reference+toleranceDays {
		return 0, false
	}
	fit = gap - reference
	if fit < 0 {
		fit = -fit
	}
	return fit, true
}

// clusterByAmount splits a merchant group into runs whose absolute amounts
// stay within tolerancePercent of the run's smallest amount.
func clusterByAmount(group []models.Transaction, tolerancePercent float64) [][]models.Transaction {
	sorted := append([]models.Transaction(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.Abs().LessThan(sorted[j].Amount.Abs())
	})

	limit := decimal.NewFromFloat(1 + tolerancePercent/100)
	var clusters [][]models.Transaction
	var current []models.Transaction
	var anchor decimal.Decimal
	for _, tx := range sorted {
		amount := tx.Amount.Abs()
		if len(current) > 0 && amount.GreaterThan(anchor.Mul(limit)) {
			clusters = append(clusters, current)
			current = nil
		}
		if len(current) == 0 {
			anchor = amount
		}
		current = append(current, tx)
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

func sortByDate(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		di, dj := models.DateOnly(txs[i].Date), models.DateOnly(txs[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return txs[i].ID < txs[j].ID
	})
}

func transactionDates(txs []models.Transaction) []time.Time {
	dates := make([]time.Time, len(txs))
	for i, tx := range txs {
		dates[i] = models.DateOnly(tx.Date)
	}
	return dates
}

func (d *Detector) safeAnalyse(key groupKey, cluster []models.Transaction) (p RecurringPattern, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring merchant group %q: %v", key.merchant, r)
		}
	}()
	p, ok = d.analyse(key, cluster)
	return p, ok, nil
}

func (d *Detector) analyse(key groupKey, cluster []models.Transaction) (RecurringPattern, bool) {
	if len(cluster) < d.cfg.MinTransactions {
		return RecurringPattern{}, false
	}

	txs := append([]models.Transaction(nil), cluster...)
	sortByDate(txs)

	dates := transactionDates(txs)
	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount.Abs().InexactFloat64()
	}

	intervals := Intervals(dates)
	cls, ok := Classify(intervals, d.cfg.IntervalToleranceDays)
	if !ok {
		return RecurringPattern{}, false
	}
	if cls.Frequency == FrequencyCustom && !d.cfg.AllowCustom {
		return RecurringPattern{}, false
	}

	confidence, factors := d.score(intervals, amounts, cls.Frequency, len(txs))
	if confidence < d.cfg.MinConfidence {
		return RecurringPattern{}, false
	}

	flags := DetectFlags(txs, intervals, amounts, cls.Frequency, FlagOptions{
		PriceChangePercent: d.cfg.PriceChangePercent,
	})

	last := dates[len(dates)-1]
	return RecurringPattern{
		NormalizedMerchant:         key.merchant,
		RepresentativeMerchantName: txs[0].MerchantName,
		RepresentativeAmount:       medianAmount(currentPrice(txs, d.cfg.AmountTolerancePercent)),
		Currency:                   key.currency,
		AmountVariance:             stddev(amounts),
		Frequency:                  cls.Frequency,
		IntervalDays:               cls.MedianDays,
		MatchedReason:              cls.MatchedReason,
		Confidence:                 confidence,
		Factors:                    factors,
		LastDate:                   last,
		PredictedNextDate:          NextDate(last, cls.Frequency, cls.MedianDays),
		Transactions:               txs,
		Flags:                      flags,
	}, true
}

// currentPrice returns the trailing charges of a date-ordered plan that stay
// within tolerancePercent of the latest amount, so a plan that changed price
// is represented by what it costs now.
func currentPrice(txs []models.Transaction, tolerancePercent float64) []models.Transaction {
	latest := txs[len(txs)-1].Amount
	start := len(txs) - 1
	for start > 0 && withinPercent(txs[start-1].Amount, latest, tolerancePercent) {
		start--
	}
	return txs[start:]
}

func medianAmount(txs []models.Transaction) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount.Abs()
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })
	return amounts[(len(amounts)-1)/2]
}

// MatchesPattern reports whether a freshly observed transaction continues p:
// same normalized merchant, amount within the amount tolerance of the
// representative amount, and dated within the interval tolerance of the
// predicted next charge.
func (d *Detector) MatchesPattern(tx models.Transaction, p RecurringPattern) bool {
	if !tx.Valid() {
		return false
	}
	if Normalize(tx.MerchantName) != p.NormalizedMerchant {
		return false
	}
	if p.Currency != "" && tx.Currency != "" && !strings.EqualFold(p.Currency, tx.Currency) {
		return false
	}
	if !withinPercent(tx.Amount, p.RepresentativeAmount, d.cfg.AmountTolerancePercent) {
		return false
	}
	gap := DaysBetween(p.PredictedNextDate, tx.Date)
	if gap < 0 {
		gap = -gap
	}
	return gap <= d.cfg.IntervalToleranceDays
}

// withinPercent reports whether |amount| lies within tolerancePercent of
// |reference|.
func withinPercent(amount, reference decimal.Decimal, tolerancePercent float64) bool {
	ref := reference.Abs()
	if ref.IsZero() {
		return false
	}
	diff := amount.Abs().Sub(ref).Abs()
	return diff.Div(ref).Mul(decimal.NewFromInt(100)).LessThanOrEqual(decimal.NewFromFloat(tolerancePercent))
}
