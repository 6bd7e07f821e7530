package repository

import (
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a gorm-backed CategoryRepository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(userID string) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Where("user_id = ?", userID).Order("name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

func (r *categoryRepository) Get(userID, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&category).Error; err != nil {
		return nil, mapErr(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

// FindByName matches names case-insensitively.
func (r *categoryRepository) FindByName(userID, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		Order("created_at ASC, id ASC").
		First(&category).Error
	if err != nil {
		return nil, mapErr(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

func (r *categoryRepository) Upsert(category *models.Category) error {
	if err := prepareUpsert(r.db, &models.Category{}, &category.Base, category.UserID, apperrors.ErrCategoryNotFound); err != nil {
		return err
	}
	if err := r.db.Save(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (r *categoryRepository) Remove(userID, id string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Category{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
