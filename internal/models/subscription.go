package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a recurring payment the user has chosen to track, either
// confirmed from a detected pattern or entered by hand.
type Subscription struct {
	Base
	UserID             string             `gorm:"type:uuid;not null;index" json:"user_id"`
	MerchantName       string             `gorm:"not null" json:"merchant_name"`
	NormalizedMerchant string             `gorm:"not null;index" json:"normalized_merchant"`
	Amount             decimal.Decimal    `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency           string             `gorm:"type:varchar(3);not null" json:"currency"`
	Frequency          string             `gorm:"not null" json:"frequency"`
	Status             SubscriptionStatus `gorm:"not null;default:active" json:"status"`
	Confidence         float64            `json:"confidence"`
	LastPaymentDate    time.Time          `json:"last_payment_date"`
	NextPaymentDate    time.Time          `json:"next_payment_date"`
	CategoryID         Optional[string]   `gorm:"type:uuid" json:"category_id"`
}

// IsActive reports whether the subscription is still being charged.
func (s *Subscription) IsActive() bool {
	return s.Status != SubscriptionStatusCancelled
}
