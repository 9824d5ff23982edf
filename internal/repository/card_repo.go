package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pinvault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAllocationConflict means a locked candidate row was claimed by someone else between
// select and update. It only happens when the database ignores row locks and is safe to retry.
var ErrAllocationConflict = errors.New("card allocation conflict")

// ShortfallError reports that fewer unused cards exist than were requested. Retrying
// without restocking fails the same way.
type ShortfallError struct {
	CardType  string
	Required  int
	Available int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient %s cards: required %d, available %d", e.CardType, e.Required, e.Available)
}

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Allocate claims quantity unused cards of cardType for orderID, oldest first. It must run
// inside the transaction that owns the order: candidate rows are selected FOR UPDATE and
// flipped with a conditional update whose row count is checked, so two concurrent
// allocations can never bind the same card. On shortfall nothing is claimed.
func (r *CardRepository) Allocate(ctx context.Context, cardType string, quantity int, orderID uint, buyerID *uint) ([]models.ScratchCard, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("allocate: invalid quantity %d", quantity)
	}
	var cards []models.ScratchCard
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("type = ? AND is_used = ?", cardType, false).
		Order("created_at ASC").
		Order("id ASC").
		Limit(quantity).
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}
	if len(cards) < quantity {
		return nil, &ShortfallError{CardType: cardType, Required: quantity, Available: len(cards)}
	}

	ids := make([]uint, len(cards))
	for i := range cards {
		ids[i] = cards[i].ID
	}
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.ScratchCard{}).
		Where("id IN ? AND is_used = ?", ids, false).
		Updates(map[string]interface{}{
			"is_used":      true,
			"order_id":     orderID,
			"purchased_by": buyerID,
			"purchased_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("claim cards: %w", res.Error)
	}
	if res.RowsAffected != int64(len(ids)) {
		return nil, ErrAllocationConflict
	}
	for i := range cards {
		cards[i].IsUsed = true
		cards[i].OrderID = &orderID
		cards[i].PurchasedBy = buyerID
		cards[i].PurchasedAt = &now
	}
	return cards, nil
}

func (r *CardRepository) CountAvailable(ctx context.Context, cardType string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ScratchCard{}).Where("type = ? AND is_used = ?", cardType, false).Count(&n).Error
	return n, err
}

// Quote returns what quantity cards of cardType cost right now: the summed prices of the
// cards Allocate would pick next. Fewer than quantity unused cards is a *ShortfallError.
func (r *CardRepository) Quote(ctx context.Context, cardType string, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("quote: invalid quantity %d", quantity)
	}
	var prices []int64
	err := r.db.WithContext(ctx).
		Model(&models.ScratchCard{}).
		Where("type = ? AND is_used = ?", cardType, false).
		Order("created_at ASC").
		Order("id ASC").
		Limit(quantity).
		Pluck("price", &prices).Error
	if err != nil {
		return 0, fmt.Errorf("quote cards: %w", err)
	}
	if len(prices) < quantity {
		return 0, &ShortfallError{CardType: cardType, Required: quantity, Available: len(prices)}
	}
	var total int64
	for _, p := range prices {
		total += p
	}
	return total, nil
}

// PriceOf sums the prices of cards.
func PriceOf(cards []models.ScratchCard) int64 {
	var total int64
	for i := range cards {
		total += cards[i].Price
	}
	return total
}

func (r *CardRepository) CreateBatch(ctx context.Context, cards []models.ScratchCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&cards, 100).Error
}

func (r *CardRepository) ListByOrderID(ctx context.Context, orderID uint) ([]models.ScratchCard, error) {
	var list []models.ScratchCard
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&list).Error
	return list, err
}
