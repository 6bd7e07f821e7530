package repository

import (
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

type merchantRuleRepository struct {
	db *gorm.DB
}

// NewMerchantRuleRepository creates a gorm-backed MerchantRuleRepository.
func NewMerchantRuleRepository(db *gorm.DB) MerchantRuleRepository {
	return &merchantRuleRepository{db: db}
}

// List orders by creation; ids are UUIDv7 so they break ties in the same order.
func (r *merchantRuleRepository) List(userID string) ([]models.MerchantCategoryRule, error) {
	var rules []models.MerchantCategoryRule
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

func (r *merchantRuleRepository) Get(userID, id string) (*models.MerchantCategoryRule, error) {
	var rule models.MerchantCategoryRule
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&rule).Error; err != nil {
		return nil, mapErr(err, apperrors.ErrRuleNotFound)
	}
	return &rule, nil
}

func (r *merchantRuleRepository) Upsert(rule *models.MerchantCategoryRule) error {
	if err := prepareUpsert(r.db, &models.MerchantCategoryRule{}, &rule.Base, rule.UserID, apperrors.ErrRuleNotFound); err != nil {
		return err
	}
	if err := r.db.Save(rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (r *merchantRuleRepository) Remove(userID, id string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.MerchantCategoryRule{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

func (r *merchantRuleRepository) CountForCategory(userID, categoryID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.MerchantCategoryRule{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}
