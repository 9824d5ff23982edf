package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "payment_intent:"

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func key(reference string) string {
	return keyPrefix + reference
}

func (c *RedisCache) Put(ctx context.Context, p *PaymentIntent, ttl time.Duration) error {
	if p.Reference == "" {
		return errors.New("intent: empty reference")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key(p.Reference), b, ttl).Err(); err != nil {
		return fmt.Errorf("intent put %s: %w", p.Reference, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, reference string) (*PaymentIntent, error) {
	b, err := c.rdb.Get(ctx, key(reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("intent get %s: %w", reference, err)
	}
	var p PaymentIntent
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("intent decode %s: %w", reference, err)
	}
	return &p, nil
}

func (c *RedisCache) Delete(ctx context.Context, reference string) error {
	return c.rdb.Del(ctx, key(reference)).Err()
}

// Connect dials Redis and verifies it answers PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}
