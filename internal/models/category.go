package models

import "github.com/shopspring/decimal"

// UncategorisedName is the name of the fallback category every user has.
const UncategorisedName = "Uncategorised"

// Category represents a spending category
type Category struct {
	Base
	UserID       string                    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string                    `gorm:"not null" json:"name"`
	Colour       Optional[string]          `gorm:"type:varchar(7)" json:"colour"`
	MonthlyLimit Optional[decimal.Decimal] `gorm:"type:numeric(18,2)" json:"monthly_limit"`
}

// MerchantCategoryRule maps merchants whose name contains MerchantPattern
// (or is contained by it) to a category. Higher Priority wins.
type MerchantCategoryRule struct {
	Base
	UserID          string `gorm:"type:uuid;not null;index" json:"user_id"`
	MerchantPattern string `gorm:"not null" json:"merchant_pattern"`
	CategoryID      string `gorm:"type:uuid;not null;index" json:"category_id"`
	Priority        int    `gorm:"not null;default:0" json:"priority"`
}
