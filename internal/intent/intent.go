// Package intent stages buyer context between checkout and payment confirmation.
// Nothing here is authoritative for money: an intent says what the buyer asked for,
// never that they paid.
package intent

import (
	"context"
	"errors"
	"strconv"
	"time"

	"pinvault/internal/domain"
)

var ErrNotFound = errors.New("payment intent not found")

type PaymentIntent struct {
	Reference   string    `json:"reference"`
	BuyerID     string    `json:"buyerId"` // numeric user id or domain.GuestBuyer
	Purpose     string    `json:"purpose,omitempty"`
	ProductType string    `json:"productType"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	TotalAmount int64     `json:"totalAmount"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserID returns the authenticated buyer, or nil for guest checkouts.
func (p *PaymentIntent) UserID() *uint {
	if p.BuyerID == "" || p.BuyerID == domain.GuestBuyer {
		return nil
	}
	id, err := strconv.ParseUint(p.BuyerID, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	u := uint(id)
	return &u
}

func (p *PaymentIntent) IsWalletFunding() bool {
	return p.Purpose == domain.PurposeWalletFunding
}

// Cache is the ephemeral intent store keyed by payment reference.
type Cache interface {
	Put(ctx context.Context, p *PaymentIntent, ttl time.Duration) error
	Get(ctx context.Context, reference string) (*PaymentIntent, error)
	Delete(ctx context.Context, reference string) error
}
