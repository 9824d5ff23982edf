package intent

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb), mr
}

func TestRedisCache_PutGetDelete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	in := &PaymentIntent{Reference: "R1", BuyerID: "guest", ProductType: "WAEC", Quantity: 2, UnitPrice: 1000, TotalAmount: 2000, Email: "a@b.com"}

	require.NoError(t, cache.Put(ctx, in, time.Hour))
	got, err := cache.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "WAEC", got.ProductType)
	assert.Equal(t, 2, got.Quantity)
	assert.EqualValues(t, 2000, got.TotalAmount)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, cache.Delete(ctx, "R1"))
	_, err = cache.Get(ctx, "R1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCache_Expires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, &PaymentIntent{Reference: "R2"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "R2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCache_RejectsEmptyReference(t *testing.T) {
	cache, _ := newTestCache(t)

	err := cache.Put(context.Background(), &PaymentIntent{}, time.Minute)
	assert.Error(t, err)
}

func TestPaymentIntent_UserID(t *testing.T) {
	tests := []struct {
		buyer string
		want  *uint
	}{
		{"guest", nil},
		{"", nil},
		{"abc", nil},
		{"0", nil},
		{"42", func() *uint { u := uint(42); return &u }()},
	}
	for _, tt := range tests {
		t.Run(tt.buyer, func(t *testing.T) {
			p := &PaymentIntent{BuyerID: tt.buyer}
			assert.Equal(t, tt.want, p.UserID())
		})
	}
}

func TestRedisCache_KeyLayout(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, cache.Put(context.Background(), &PaymentIntent{Reference: "R9", TotalAmount: 1}, time.Hour))

	assert.Equal(t, []string{"payment_intent:R9"}, mr.Keys())
}
