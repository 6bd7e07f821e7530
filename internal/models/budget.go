package models

import "github.com/shopspring/decimal"

// BudgetConfig holds a user's spending limits. A user without a stored
// config has no limits and can never breach.
type BudgetConfig struct {
	Base
	UserID            string                     `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Currency          string                     `gorm:"type:varchar(3);not null" json:"currency"`
	MonthlyLimit      Optional[decimal.Decimal]  `gorm:"type:numeric(18,2)" json:"monthly_limit"`
	YearlyLimit       Optional[decimal.Decimal]  `gorm:"type:numeric(18,2)" json:"yearly_limit"`
	PerCategoryLimits map[string]decimal.Decimal `gorm:"serializer:json;type:text" json:"per_category_limits,omitempty"`
}
