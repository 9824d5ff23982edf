package models

import "time"

type EmailLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	OrderID   *uint     `gorm:"index" json:"order_id"`
	Recipient string    `gorm:"size:255;not null" json:"recipient"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Status    string    `gorm:"size:20;not null;index" json:"status"` // SENT, FAILED, PENDING
	MessageID string    `gorm:"size:128" json:"message_id"`
	Error     *string   `gorm:"type:text" json:"error"`
	CardType  string    `gorm:"size:32" json:"card_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailLog) TableName() string {
	return "email_logs"
}
