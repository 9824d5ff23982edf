package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction is the money ledger. Reference is globally unique and is the idempotency key
// for every gateway event.
type Transaction struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	Amount    int64          `gorm:"not null" json:"amount"`
	Type      string         `gorm:"size:20;not null;index" json:"type"`   // DEPOSIT, PURCHASE, WITHDRAWAL, REFUND
	Reference string         `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	Status    string         `gorm:"size:20;not null;index" json:"status"` // PENDING, SUCCESS, FAILED
	OrderID   *uint          `gorm:"index" json:"order_id"`
	Metadata  string         `gorm:"type:text" json:"metadata"` // JSON
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
