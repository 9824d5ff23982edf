package repository

import (
	"context"

	"pinvault/internal/models"

	"gorm.io/gorm"
)

type EmailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

func (r *EmailLogRepository) Create(ctx context.Context, l *models.EmailLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *EmailLogRepository) ListByOrderID(ctx context.Context, orderID uint) ([]models.EmailLog, error) {
	var list []models.EmailLog
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&list).Error
	return list, err
}
