package repository

import (
	"context"

	"pinvault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TransactionRepository) GetByReferenceForUpdate(ctx context.Context, ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", ref).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TransactionRepository) Update(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// TransitionStatus moves a transaction from one status to another only if it is still in
// the expected status. It reports whether this call performed the transition.
func (r *TransactionRepository) TransitionStatus(ctx context.Context, ref, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", ref, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
