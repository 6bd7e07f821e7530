package budget

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
)

// Projection is the outcome of simulating a new expense.
type Projection struct {
	WillExceed bool    `json:"will_exceed"`
	Reason     string  `json:"reason,omitempty"`
	Breach     *Breach `json:"breach,omitempty"`
}

// WillExceedOnAdd evaluates the month containing date as if a transaction of
// amount (optionally in categoryID) had been added, and reports the first
// limit it would cross: monthly, then yearly, then the category's.
func WillExceedOnAdd(txs []models.Transaction, categories []models.Category, cfg *models.BudgetConfig, amount decimal.Decimal, categoryID models.Optional[string], date time.Time) (Projection, error) {
	if cfg == nil {
		return Projection{}, nil
	}

	currency := cfg.Currency
	hypothetical := models.Transaction{
		MerchantName: "projected",
		Amount:       amount,
		Currency:     currency,
		Date:         models.DateOnly(date),
		CategoryID:   categoryID,
	}
	with := make([]models.Transaction, 0, len(txs)+1)
	with = append(with, txs...)
	with = append(with, hypothetical)

	status, err := Evaluate(MonthOf(date), with, categories, cfg)
	if err != nil {
		return Projection{}, err
	}

	target := categoryID.OrElse("")
	for _, b := range status.Breaches {
		if b.Type == BreachCategory && b.CategoryID != target {
			continue
		}
		breach := b
		return Projection{WillExceed: true, Reason: reason(breach, amount, currency), Breach: &breach}, nil
	}
	return Projection{}, nil
}

func reason(b Breach, amount decimal.Decimal, currency string) string {
	scope := string(b.Type)
	if b.Type == BreachCategory {
		scope = "category " + b.CategoryID
	}
	return fmt.Sprintf("Adding %s %s would take %s spending to %s, over the %s limit by %s.",
		amount.StringFixed(2), currency, scope, b.Spent.StringFixed(2), b.Limit.StringFixed(2), b.Overage.StringFixed(2))
}

// MonthTotal is the spend of one calendar month.
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// YearlySpending returns the total spend of each month of year, January
// first, evaluated with the same month bounds as Evaluate.
func YearlySpending(year int, txs []models.Transaction, cfg *models.BudgetConfig) ([]MonthTotal, error) {
	out := make([]MonthTotal, 0, 12)
	for m := time.January; m <= time.December; m++ {
		month := FormatMonth(year, m)
		start, end, err := MonthBounds(month)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, tx := range txs {
			if tx.Valid() && sameCurrency(cfg, tx.Currency) && within(tx.Date, start, end) {
				total = total.Add(tx.Amount)
			}
		}
		out = append(out, MonthTotal{Month: month, Total: total})
	}
	return out, nil
}
