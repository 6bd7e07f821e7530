package recurring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func txn(t *testing.T, id, merchant, amount, day string) models.Transaction {
	t.Helper()
	return models.Transaction{
		Base:         models.Base{ID: id},
		MerchantName: merchant,
		Amount:       decimal.RequireFromString(amount),
		Currency:     "GBP",
		Date:         date(t, day),
	}
}

func fixedNow(t *testing.T, s string) func() time.Time {
	d := date(t, s)
	return func() time.Time { return d }
}
