package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single posted or pending card/bank movement supplied by
// the bank-sync collaborator. The analysis never mutates it.
type Transaction struct {
	Base
	UserID         string           `gorm:"type:uuid;not null;index" json:"user_id"`
	MerchantName   string           `gorm:"not null" json:"merchant_name"`
	Amount         decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency       string           `gorm:"type:varchar(3);not null" json:"currency"`
	Date           time.Time        `gorm:"not null;index" json:"date"`
	AccountID      Optional[string] `gorm:"type:varchar(64)" json:"account_id"`
	Pending        bool             `gorm:"default:false" json:"pending"`
	CategoryID     Optional[string] `gorm:"type:uuid;index" json:"category_id"`
	SubscriptionID Optional[string] `gorm:"type:uuid;index" json:"subscription_id"`
}

// Valid reports whether the record carries the fields the analysis needs.
// Records with a zero date or zero amount are skipped, never rejected.
func (t *Transaction) Valid() bool {
	return !t.Date.IsZero() && !t.Amount.IsZero()
}
