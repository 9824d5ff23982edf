package models

import "time"

// WebhookLog is an append-only operational trail. Business logic never reads it.
type WebhookLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Event     string    `gorm:"size:100;not null;index" json:"event"`
	Level     string    `gorm:"size:10;not null;index" json:"level"` // INFO, WARN, ERROR
	Data      string    `gorm:"type:text" json:"data"`               // JSON
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}
