package repository

import (
	"context"
	"encoding/json"
	"time"

	"pinvault/internal/models"

	"gorm.io/gorm"
)

type WebhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Record appends one audit entry. data is stored as JSON.
func (r *WebhookLogRepository) Record(ctx context.Context, event, level string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		dataJSON = string(b)
	}
	return r.db.WithContext(ctx).Create(&models.WebhookLog{
		Event:     event,
		Level:     level,
		Data:      dataJSON,
		Timestamp: time.Now(),
	}).Error
}

func (r *WebhookLogRepository) ListByEvent(ctx context.Context, event string) ([]models.WebhookLog, error) {
	var list []models.WebhookLog
	err := r.db.WithContext(ctx).Where("event = ?", event).Order("id ASC").Find(&list).Error
	return list, err
}
