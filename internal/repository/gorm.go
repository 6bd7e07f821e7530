package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// NewGormRepositories returns gorm-backed implementations of every
// repository sharing db.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Transactions:  NewTransactionRepository(db),
		Categories:    NewCategoryRepository(db),
		Rules:         NewMerchantRuleRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		Budgets:       NewBudgetConfigRepository(db),
	}
}

// mapErr converts gorm errors into application errors, using notFound for
// missing rows.
func mapErr(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

type ownedRow struct {
	UserID    string
	CreatedAt time.Time
}

// prepareUpsert fails when base.ID already belongs to a different user, so
// an upsert can never take over another user's row. For rows that exist it
// keeps the stored creation time.
func prepareUpsert(db *gorm.DB, model any, base *models.Base, userID string, notFound *apperrors.AppError) error {
	if base.ID == "" {
		return nil
	}
	var rows []ownedRow
	if err := db.Model(model).Select("user_id, created_at").Where("id = ?", base.ID).Find(&rows).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if rows[0].UserID != userID {
		return notFound
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = rows[0].CreatedAt
	}
	return nil
}
