package repository

import (
	"strings"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm-backed TransactionRepository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) query(userID string, f TransactionFilter) *gorm.DB {
	q := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if from, ok := f.From.Get(); ok {
		q = q.Where("date >= ?", models.DateOnly(from))
	}
	if to, ok := f.To.Get(); ok {
		q = q.Where("date < ?", models.DateOnly(to).AddDate(0, 0, 1))
	}
	if m := strings.TrimSpace(f.Merchant); m != "" {
		q = q.Where("LOWER(merchant_name) LIKE ?", "%"+strings.ToLower(m)+"%")
	}
	if id, ok := f.CategoryID.Get(); ok {
		q = q.Where("category_id = ?", id)
	}
	if id, ok := f.SubscriptionID.Get(); ok {
		q = q.Where("subscription_id = ?", id)
	}
	return q
}

func (r *transactionRepository) List(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.query(userID, filter).Order("date ASC, id ASC").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

func (r *transactionRepository) Page(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var totalItems int64
	if err := r.query(userID, filter).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	if err := r.query(userID, filter).Scopes(pagination.Paginate(page)).Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (r *transactionRepository) Get(userID, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		return nil, mapErr(err, apperrors.ErrTransactionNotFound)
	}
	return &tx, nil
}

func (r *transactionRepository) Upsert(tx *models.Transaction) error {
	if err := prepareUpsert(r.db, &models.Transaction{}, &tx.Base, tx.UserID, apperrors.ErrTransactionNotFound); err != nil {
		return err
	}
	tx.Date = models.DateOnly(tx.Date)
	tx.Currency = strings.ToUpper(tx.Currency)
	if err := r.db.Save(tx).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// LinkSubscription points the user's transactions with the given ids at
// subscriptionID and reports how many rows changed. Ids owned by other users
// are ignored.
func (r *transactionRepository) LinkSubscription(userID, subscriptionID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Transaction{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("subscription_id", subscriptionID)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}
