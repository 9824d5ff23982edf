package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pinvault/internal/domain"
	"pinvault/internal/models"
	"pinvault/internal/repository"
	"pinvault/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createOrder(t *testing.T, ctx context.Context, store *repository.Store, ref, cardType string, qty int) *models.Order {
	t.Helper()
	o := &models.Order{Reference: ref, CardType: cardType, Quantity: qty, TotalAmount: int64(qty) * 1000, Status: domain.OrderStatusProcessing}
	require.NoError(t, store.Orders.Create(ctx, o))
	return o
}

func TestCardRepository_AllocateOldestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	seeded := testutil.SeedCards(t, db, "WAEC", 5, 1000)
	order := createOrder(t, ctx, store, "R-fifo", "WAEC", 2)

	cards, err := store.Cards.Allocate(ctx, "WAEC", 2, order.ID, nil)

	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, seeded[0].ID, cards[0].ID)
	assert.Equal(t, seeded[1].ID, cards[1].ID)
	for _, c := range cards {
		assert.True(t, c.IsUsed)
		require.NotNil(t, c.OrderID)
		assert.Equal(t, order.ID, *c.OrderID)
	}
	left, err := store.Cards.CountAvailable(ctx, "WAEC")
	require.NoError(t, err)
	assert.EqualValues(t, 3, left)
}

func TestCardRepository_AllocateShortfallClaimsNothing(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	testutil.SeedCards(t, db, "NECO", 3, 1000)
	testutil.SeedCards(t, db, "WAEC", 10, 1000)
	order := createOrder(t, ctx, store, "R-short", "NECO", 5)

	cards, err := store.Cards.Allocate(ctx, "NECO", 5, order.ID, nil)

	assert.Nil(t, cards)
	var shortfall *repository.ShortfallError
	require.True(t, errors.As(err, &shortfall))
	assert.Equal(t, "NECO", shortfall.CardType)
	assert.Equal(t, 5, shortfall.Required)
	assert.Equal(t, 3, shortfall.Available)
	assert.EqualValues(t, 0, testutil.CountRows(t, db, &models.ScratchCard{}, "is_used = ?", true))
}

func TestCardRepository_AllocateRejectsBadQuantity(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)

	_, err := store.Cards.Allocate(context.Background(), "WAEC", 0, 1, nil)

	assert.Error(t, err)
}

func TestCardRepository_ConcurrentAllocationsNeverShareCards(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	testutil.SeedCards(t, db, "WAEC", 20, 1000)

	const workers = 8
	const perOrder = 3
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.InTx(ctx, func(tx *repository.Store) error {
				o := &models.Order{Reference: fmt.Sprintf("R-conc-%d", i), CardType: "WAEC", Quantity: perOrder, TotalAmount: 3000, Status: domain.OrderStatusProcessing}
				if err := tx.Orders.Create(ctx, o); err != nil {
					return err
				}
				_, err := tx.Cards.Allocate(ctx, "WAEC", perOrder, o.ID, nil)
				return err
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var shortfall *repository.ShortfallError
		assert.True(t, errors.As(err, &shortfall), "unexpected error: %v", err)
	}
	// 20 cards cover six orders of three.
	assert.Equal(t, 6, succeeded)

	var used []models.ScratchCard
	require.NoError(t, db.Where("is_used = ?", true).Find(&used).Error)
	assert.Len(t, used, succeeded*perOrder)
	seen := map[uint]bool{}
	for _, c := range used {
		assert.False(t, seen[c.ID], "card %d bound twice", c.ID)
		seen[c.ID] = true
		require.NotNil(t, c.OrderID)
	}
	// Orders whose allocation failed were rolled back together with their claims.
	assert.EqualValues(t, succeeded, testutil.CountRows(t, db, &models.Order{}, ""))
}

func TestCardRepository_QuoteSumsNextCards(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()

	_, err := store.Cards.Quote(ctx, "JAMB", 1)
	var sf *repository.ShortfallError
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, 0, sf.Available)

	testutil.SeedCards(t, db, "JAMB", 2, 4700)
	testutil.SeedCards(t, db, "JAMB", 1, 5000)

	two, err := store.Cards.Quote(ctx, "JAMB", 2)
	require.NoError(t, err)
	three, err := store.Cards.Quote(ctx, "JAMB", 3)
	require.NoError(t, err)
	_, err = store.Cards.Quote(ctx, "JAMB", 4)

	assert.EqualValues(t, 9400, two)
	assert.EqualValues(t, 14400, three)
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, 3, sf.Available)
}

func TestCardRepository_AllocatedPriceMatchesQuote(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	testutil.SeedCards(t, db, "WAEC", 1, 1000)
	testutil.SeedCards(t, db, "WAEC", 2, 1500)
	order := createOrder(t, ctx, store, "R-q", "WAEC", 2)

	quote, err := store.Cards.Quote(ctx, "WAEC", 2)
	require.NoError(t, err)
	cards, err := store.Cards.Allocate(ctx, "WAEC", 2, order.ID, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 2500, quote)
	assert.Equal(t, quote, repository.PriceOf(cards))
}
