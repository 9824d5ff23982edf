package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Reference     string         `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	UserID        *uint          `gorm:"index" json:"user_id"`
	GuestEmail    *string        `gorm:"size:255" json:"guest_email,omitempty"`
	DeliveryEmail string         `gorm:"size:255" json:"delivery_email"`
	CardType      string         `gorm:"size:32;not null;index" json:"card_type"`
	Quantity      int            `gorm:"not null" json:"quantity"`
	TotalAmount   int64          `gorm:"not null" json:"total_amount"`
	Status        string         `gorm:"size:20;not null;index" json:"status"` // PENDING, PROCESSING, COMPLETED, FAILED
	CompletedAt   *time.Time     `json:"completed_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Cards []ScratchCard `gorm:"foreignKey:OrderID" json:"cards,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) IsGuest() bool { return o.UserID == nil }
