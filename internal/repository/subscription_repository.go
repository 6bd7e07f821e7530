package repository

import (
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a gorm-backed SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) List(userID string, filter SubscriptionFilter) ([]models.Subscription, error) {
	q := r.db.Where("user_id = ?", userID)
	if status, ok := filter.Status.Get(); ok {
		q = q.Where("status = ?", status)
	}
	var subs []models.Subscription
	if err := q.Order("next_payment_date ASC, id ASC").Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subs, nil
}

func (r *subscriptionRepository) Get(userID, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
		return nil, mapErr(err, apperrors.ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if err := prepareUpsert(r.db, &models.Subscription{}, &sub.Base, sub.UserID, apperrors.ErrSubscriptionNotFound); err != nil {
		return err
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusActive
	}
	if err := r.db.Save(sub).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
