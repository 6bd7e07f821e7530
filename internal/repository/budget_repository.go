package repository

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

type budgetConfigRepository struct {
	db *gorm.DB
}

// NewBudgetConfigRepository creates a gorm-backed BudgetConfigRepository.
func NewBudgetConfigRepository(db *gorm.DB) BudgetConfigRepository {
	return &budgetConfigRepository{db: db}
}

// Get returns None when the user has never saved a configuration.
func (r *budgetConfigRepository) Get(userID string) (models.Optional[models.BudgetConfig], error) {
	var cfg models.BudgetConfig
	if err := r.db.Where("user_id = ?", userID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.None[models.BudgetConfig](), nil
		}
		return models.None[models.BudgetConfig](), apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return models.Some(cfg), nil
}

// Upsert replaces the user's configuration, keeping its id.
func (r *budgetConfigRepository) Upsert(cfg *models.BudgetConfig) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Base
		if err := tx.Model(&models.BudgetConfig{}).Select("id, created_at").Where("user_id = ?", cfg.UserID).Find(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(existing) > 0 {
			cfg.ID = existing[0].ID
			cfg.CreatedAt = existing[0].CreatedAt
		}
		if err := tx.Save(cfg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
