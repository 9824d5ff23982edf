package models

import "time"

// ScratchCard is one sellable PIN. IsUsed only ever flips false -> true and OrderID is set once.
type ScratchCard struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Type         string     `gorm:"size:32;not null;index:idx_cards_pool,priority:1" json:"type"`
	Pin          string     `gorm:"size:64" json:"pin,omitempty"`
	SerialNumber string     `gorm:"size:64;uniqueIndex" json:"serial_number"`
	ImageURL     string     `gorm:"size:512" json:"image_url,omitempty"` // image-based cards have no PIN
	Price        int64      `gorm:"not null" json:"price"`
	IsUsed       bool       `gorm:"not null;default:false;index:idx_cards_pool,priority:2" json:"is_used"`
	OrderID      *uint      `gorm:"index" json:"order_id"`
	PurchasedBy  *uint      `gorm:"index" json:"purchased_by"`
	PurchasedAt  *time.Time `json:"purchased_at"`
	CreatedAt    time.Time  `gorm:"index:idx_cards_pool,priority:3" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ScratchCard) TableName() string {
	return "scratch_cards"
}

func (c *ScratchCard) IsImageCard() bool { return c.Pin == "" && c.ImageURL != "" }
