package recurring

import (
	"errors"
	"testing"

	"tally/internal/models"
)

func scenarioA(t *testing.T) []models.Transaction {
	return []models.Transaction{
		txn(t, "a1", "Netflix", "12.99", "2025-01-10"),
		txn(t, "a2", "NETFLIX.COM", "12.99", "2025-02-09"),
		txn(t, "a3", "Netflix", "12.99", "2025-03-11"),
		txn(t, "a4", "NETFLIX.COM", "12.99", "2025-04-10"),
		txn(t, "a5", "Netflix", "12.99", "2025-05-10"),
	}
}

func scenarioB(t *testing.T) []models.Transaction {
	return []models.Transaction{
		txn(t, "b1", "Spotify", "9.99", "2025-02-01"),
		txn(t, "b2", "Spotify", "9.99", "2025-03-03"),
		txn(t, "b3", "Spotify", "9.99", "2025-04-02"),
		txn(t, "b4", "Spotify", "10.99", "2025-05-02"),
	}
}

func scenarioC(t *testing.T) []models.Transaction {
	return []models.Transaction{
		txn(t, "c1", "PureGym", "29.99", "2025-01-01"),
		txn(t, "c2", "PureGym", "29.99", "2025-01-31"),
		txn(t, "c3", "PureGym", "29.99", "2025-04-01"),
	}
}

func testDetector(t *testing.T) *Detector {
	return NewDetector(Config{Now: fixedNow(t, "2025-06-01"), MinConfidence: DefaultMinConfidence})
}

func findPattern(patterns []RecurringPattern, merchant string) (RecurringPattern, int) {
	count := 0
	var found RecurringPattern
	for _, p := range patterns {
		if p.NormalizedMerchant == merchant {
			found = p
			count++
		}
	}
	return found, count
}

func TestDetectPatterns_ScenarioA(t *testing.T) {
	patterns := testDetector(t).DetectPatterns(scenarioA(t))

	if len(patterns) != 1 {
		t.Fatalf("expected exactly one pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.NormalizedMerchant != "netflix" {
		t.Errorf("expected merchant netflix, got %s", p.NormalizedMerchant)
	}
	if p.RepresentativeMerchantName != "Netflix" {
		t.Errorf("expected first seen name Netflix, got %s", p.RepresentativeMerchantName)
	}
	if p.Frequency != FrequencyMonthly {
		t.Errorf("expected monthly, got %s", p.Frequency)
	}
	if p.Confidence < 0.8 {
		t.Errorf("expected confidence >= 0.8, got %g", p.Confidence)
	}
	if len(p.Transactions) != 5 {
		t.Errorf("expected 5 transactions, got %d", len(p.Transactions))
	}
	if HasFlag(p.Flags, FlagPriceChange) || HasFlag(p.Flags, FlagMissedPayment) {
		t.Errorf("expected no anomaly flags, got %v", p.Flags)
	}
	if !p.PredictedNextDate.Equal(date(t, "2025-06-10")) {
		t.Errorf("expected next date 2025-06-10, got %s", p.PredictedNextDate.Format("2006-01-02"))
	}
	if p.AmountVariance != 0 {
		t.Errorf("expected zero variance, got %g", p.AmountVariance)
	}
	for i := 1; i < len(p.Transactions); i++ {
		if p.Transactions[i].Date.Before(p.Transactions[i-1].Date) {
			t.Fatal("expected transactions ordered by date")
		}
	}
}

func TestDetectPatterns_ScenarioB(t *testing.T) {
	d := testDetector(t)
	a := d.DetectPatterns(scenarioA(t))[0]
	patterns := d.DetectPatterns(scenarioB(t))

	if len(patterns) != 1 {
		t.Fatalf("expected the price increase to stay in one pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if !HasFlag(p.Flags, FlagPriceChange) {
		t.Errorf("expected price_change flag, got %v", p.Flags)
	}
	if p.Confidence >= a.Confidence {
		t.Errorf("expected confidence below scenario A (%g >= %g)", p.Confidence, a.Confidence)
	}
	if p.Confidence < DefaultMinConfidence {
		t.Errorf("expected confidence >= %g, got %g", DefaultMinConfidence, p.Confidence)
	}
}

func TestDetectPatterns_ScenarioC(t *testing.T) {
	patterns := testDetector(t).DetectPatterns(scenarioC(t))

	if len(patterns) != 1 {
		t.Fatalf("expected one pattern, got %d", len(patterns))
	}
	if !HasFlag(patterns[0].Flags, FlagMissedPayment) {
		t.Errorf("expected missed_payment flag, got %v", patterns[0].Flags)
	}
	if patterns[0].Frequency != FrequencyMonthly {
		t.Errorf("expected monthly, got %s", patterns[0].Frequency)
	}
}

func TestDetectPatterns_MixedHistory(t *testing.T) {
	var txs []models.Transaction
	txs = append(txs, scenarioA(t)...)
	txs = append(txs, scenarioB(t)...)
	txs = append(txs, scenarioC(t)...)
	txs = append(txs,
		txn(t, "t1", "Tesco", "54.20", "2025-03-14"),
		txn(t, "m1", "Amazon", "10.00", "2025-01-03"),
		txn(t, "m2", "Amazon", "85.00", "2025-01-20"),
		txn(t, "m3", "Amazon", "240.00", "2025-04-11"),
		models.Transaction{Base: models.Base{ID: "bad1"}, MerchantName: "Netflix"},
	)

	patterns := testDetector(t).DetectPatterns(txs)

	if len(patterns) != 3 {
		t.Fatalf("expected 3 patterns, got %d", len(patterns))
	}
	if _, n := findPattern(patterns, "tesco"); n != 0 {
		t.Error("a one-off transaction must not form a pattern")
	}
	if _, n := findPattern(patterns, "amazon"); n != 0 {
		t.Error("unrelated amounts must not form a pattern")
	}
	if p, _ := findPattern(patterns, "netflix"); len(p.Transactions) != 5 {
		t.Errorf("malformed record should be skipped, got %d transactions", len(p.Transactions))
	}

	for i := 1; i < len(patterns); i++ {
		if patterns[i].Confidence > patterns[i-1].Confidence {
			t.Fatal("expected patterns sorted by confidence descending")
		}
	}
	for _, p := range patterns {
		if len(p.Transactions) < DefaultMinTransactions {
			t.Errorf("%s: %d transactions below minimum", p.NormalizedMerchant, len(p.Transactions))
		}
		if p.Confidence < DefaultMinConfidence || p.Confidence > 1 {
			t.Errorf("%s: confidence %g out of range", p.NormalizedMerchant, p.Confidence)
		}
	}
}

func TestDetectPatterns_SplitsPlansAtOneMerchant(t *testing.T) {
	txs := []models.Transaction{
		txn(t, "1", "Apple", "0.99", "2025-01-05"),
		txn(t, "2", "Apple", "0.99", "2025-02-05"),
		txn(t, "3", "Apple", "0.99", "2025-03-05"),
		txn(t, "4", "Apple", "6.99", "2025-01-20"),
		txn(t, "5", "Apple", "6.99", "2025-02-20"),
		txn(t, "6", "Apple", "6.99", "2025-03-20"),
	}
	patterns := testDetector(t).DetectPatterns(txs)
	if _, n := findPattern(patterns, "apple"); n != 2 {
		t.Errorf("expected two patterns for two price points, got %d", n)
	}
}

func TestDetectPatterns_PriceHikeStaysOnePlan(t *testing.T) {
	txs := []models.Transaction{
		txn(t, "1", "Netflix", "9.99", "2025-01-10"),
		txn(t, "2", "Netflix", "9.99", "2025-02-10"),
		txn(t, "3", "Netflix", "9.99", "2025-03-10"),
		txn(t, "4", "NETFLIX.COM", "15.49", "2025-04-10"),
		txn(t, "5", "NETFLIX.COM", "15.49", "2025-05-10"),
		txn(t, "6", "NETFLIX.COM", "15.49", "2025-06-10"),
	}
	d := NewDetector(Config{Now: fixedNow(t, "2025-06-15"), MinConfidence: DefaultMinConfidence})

	patterns := d.DetectPatterns(txs)

	if len(patterns) != 1 {
		t.Fatalf("expected one pattern across the price rise, got %d", len(patterns))
	}
	p := patterns[0]
	if len(p.Transactions) != 6 {
		t.Errorf("expected 6 transactions, got %d", len(p.Transactions))
	}
	if !HasFlag(p.Flags, FlagPriceChange) {
		t.Errorf("expected price_change flag, got %v", p.Flags)
	}
	if p.Frequency != FrequencyMonthly {
		t.Errorf("expected monthly, got %s", p.Frequency)
	}
	if got := p.RepresentativeAmount.StringFixed(2); got != "15.49" {
		t.Errorf("expected the current price 15.49, got %s", got)
	}
	if !p.PredictedNextDate.Equal(date(t, "2025-07-10")) {
		t.Errorf("expected next date 2025-07-10, got %s", p.PredictedNextDate.Format("2006-01-02"))
	}
	if !d.MatchesPattern(txn(t, "7", "Netflix", "15.49", "2025-07-10"), p) {
		t.Error("expected the next charge at the new price to match")
	}
}

func TestDetectPatterns_PriceDriftStaysOnePlan(t *testing.T) {
	txs := []models.Transaction{
		txn(t, "1", "Cloud Storage", "10.00", "2025-01-01"),
		txn(t, "2", "Cloud Storage", "11.00", "2025-02-01"),
		txn(t, "3", "Cloud Storage", "12.10", "2025-03-01"),
		txn(t, "4", "Cloud Storage", "13.31", "2025-04-01"),
	}

	patterns := testDetector(t).DetectPatterns(txs)

	if len(patterns) != 1 {
		t.Fatalf("expected one pattern, got %d", len(patterns))
	}
	if len(patterns[0].Transactions) != 4 {
		t.Errorf("expected 4 transactions, got %d", len(patterns[0].Transactions))
	}
	if !HasFlag(patterns[0].Flags, FlagPriceChange) {
		t.Errorf("expected price_change flag, got %v", patterns[0].Flags)
	}
}

func TestDetectPatterns_GroupFailureIsIsolated(t *testing.T) {
	var txs []models.Transaction
	txs = append(txs, scenarioA(t)...)
	txs = append(txs, scenarioB(t)...)
	txs = append(txs, scenarioC(t)...)

	var failed []string
	var failure error
	d := NewDetector(Config{Now: fixedNow(t, "2025-06-01"), MinConfidence: DefaultMinConfidence},
		WithGroupErrorHandler(func(merchant string, err error) {
			failed = append(failed, merchant)
			failure = err
		}))
	d.score = func(intervals []int, amounts []float64, f Frequency, n int) (float64, Factors) {
		if amounts[0] == 29.99 {
			panic(errors.New("bad input"))
		}
		return Score(intervals, amounts, f, n)
	}

	patterns := d.DetectPatterns(txs)

	if len(failed) != 1 || failed[0] != "puregym" {
		t.Fatalf("expected one failure for puregym, got %v", failed)
	}
	if failure == nil {
		t.Error("expected the failure to carry an error")
	}
	if len(patterns) != 2 {
		t.Fatalf("expected the other 2 patterns, got %d", len(patterns))
	}
	for _, merchant := range []string{"netflix", "spotify"} {
		if _, n := findPattern(patterns, merchant); n != 1 {
			t.Errorf("expected a %s pattern", merchant)
		}
	}
}

func TestDetectPatterns_CustomCadence(t *testing.T) {
	txs := []models.Transaction{
		txn(t, "1", "Water Delivery", "50.00", "2025-01-01"),
		txn(t, "2", "Water Delivery", "50.00", "2025-02-15"),
		txn(t, "3", "Water Delivery", "50.00", "2025-04-01"),
		txn(t, "4", "Water Delivery", "50.00", "2025-05-16"),
	}

	t.Run("dropped by default", func(t *testing.T) {
		if patterns := testDetector(t).DetectPatterns(txs); len(patterns) != 0 {
			t.Errorf("expected no patterns, got %d", len(patterns))
		}
	})

	t.Run("kept when allowed", func(t *testing.T) {
		d := NewDetector(Config{Now: fixedNow(t, "2025-06-01"), MinConfidence: DefaultMinConfidence, AllowCustom: true})
		patterns := d.DetectPatterns(txs)
		if len(patterns) != 1 {
			t.Fatalf("expected one pattern, got %d", len(patterns))
		}
		p := patterns[0]
		if p.Frequency != FrequencyCustom || p.IntervalDays != 45 {
			t.Errorf("expected custom every 45 days, got %s every %d", p.Frequency, p.IntervalDays)
		}
		if !p.PredictedNextDate.Equal(date(t, "2025-06-30")) {
			t.Errorf("expected next date 2025-06-30, got %s", p.PredictedNextDate.Format("2006-01-02"))
		}
		if !HasFlag(p.Flags, FlagIrregularTiming) {
			t.Errorf("expected irregular_timing flag, got %v", p.Flags)
		}
		if p.Factors.Regularity != 1 {
			t.Errorf("expected evenly spaced gaps to be fully regular, got %g", p.Factors.Regularity)
		}
		if got := p.MonthlyCost().StringFixed(2); got != "33.82" {
			t.Errorf("expected monthly cost 33.82, got %s", got)
		}
	})
}

func TestConfigMinConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero disables the threshold", 0, 0},
		{"negative takes the default", -1, DefaultMinConfidence},
		{"explicit value is kept", 0.7, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewDetector(Config{MinConfidence: tt.in}).Config().MinConfidence; got != tt.want {
				t.Errorf("expected %g, got %g", tt.want, got)
			}
		})
	}
	if got := DefaultConfig().MinConfidence; got != DefaultMinConfidence {
		t.Errorf("expected default %g, got %g", DefaultMinConfidence, got)
	}
}

func TestDetectPatterns_Lookback(t *testing.T) {
	txs := []models.Transaction{
		txn(t, "1", "Gym", "20.00", "2023-01-01"),
		txn(t, "2", "Gym", "20.00", "2023-02-01"),
		txn(t, "3", "Gym", "20.00", "2023-03-01"),
	}
	if patterns := testDetector(t).DetectPatterns(txs); len(patterns) != 0 {
		t.Errorf("expected stale history to be ignored, got %d patterns", len(patterns))
	}
}

func TestDetectPatterns_Empty(t *testing.T) {
	patterns := testDetector(t).DetectPatterns(nil)
	if patterns == nil || len(patterns) != 0 {
		t.Errorf("expected an empty, non-nil result, got %v", patterns)
	}
}

func TestDetectPatterns_MinConfidence(t *testing.T) {
	d := NewDetector(Config{Now: fixedNow(t, "2025-06-01"), MinConfidence: 0.9})
	patterns := d.DetectPatterns(scenarioC(t))
	if len(patterns) != 0 {
		t.Errorf("expected irregular pattern below 0.9 to be dropped, got %d", len(patterns))
	}
}

func TestMatchesPattern(t *testing.T) {
	d := testDetector(t)
	p := d.DetectPatterns(scenarioA(t))[0]

	tests := []struct {
		name string
		tx   models.Transaction
		want bool
	}{
		{"on schedule", txn(t, "n1", "NETFLIX.COM", "12.99", "2025-06-10"), true},
		{"a few days late", txn(t, "n2", "Netflix", "12.99", "2025-06-16"), true},
		{"price rise within tolerance", txn(t, "n3", "Netflix", "14.99", "2025-06-09"), true},
		{"too late", txn(t, "n4", "Netflix", "12.99", "2025-06-25"), false},
		{"amount too different", txn(t, "n5", "Netflix", "19.99", "2025-06-10"), false},
		{"other merchant", txn(t, "n6", "Hulu", "12.99", "2025-06-10"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.MatchesPattern(tt.tx, p); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMonthlyCost(t *testing.T) {
	p := RecurringPattern{RepresentativeAmount: txn(t, "", "", "120.00", "2025-01-01").Amount, Frequency: FrequencyYearly}
	if got := p.MonthlyCost().StringFixed(2); got != "10.00" {
		t.Errorf("expected 10.00, got %s", got)
	}
}
