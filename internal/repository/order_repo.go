package repository

import (
	"context"
	"time"

	"pinvault/internal/domain"
	"pinvault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) GetByReference(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// GetByReferenceForUpdate row-locks the order; only meaningful inside a transaction.
func (r *OrderRepository) GetByReferenceForUpdate(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", ref).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) GetWithCards(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("reference = ?", ref).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o *models.Order, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == domain.OrderStatusCompleted {
		now := time.Now()
		o.CompletedAt = &now
		updates["completed_at"] = now
	}
	o.Status = status
	return r.db.WithContext(ctx).Model(o).Updates(updates).Error
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

// SetTotal records what the order was charged once its cards are known.
func (r *OrderRepository) SetTotal(ctx context.Context, o *models.Order, total int64) error {
	o.TotalAmount = total
	return r.db.WithContext(ctx).Model(o).Update("total_amount", total).Error
}
