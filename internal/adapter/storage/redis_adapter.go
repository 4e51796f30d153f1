package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

const (
	inventoryKeyPrefix   = "inventory:"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// incrementItemScript returns the new quantity, 0 once the field is deleted,
// -1 when a missing field would be decremented and -2 when the quantity
// would go above ARGV[3].
var incrementItemScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local delta = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local current = redis.call('HGET', key, field)
if not current then
	if delta <= 0 then
		return -1
	end
	if delta > limit then
		return -2
	end
	redis.call('HSET', key, field, delta)
	return delta
end

local updated = tonumber(current) + delta
if updated > limit then
	return -2
end
if updated <= 0 then
	redis.call('HDEL', key, field)
	return 0
end

redis.call('HSET', key, field, updated)
return updated
`)

var updateItemScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// RedisAdapter stores each user's inventory as one hash, field = item name,
// value = quantity.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func inventoryKey(userID string) string {
	return inventoryKeyPrefix + userID
}

func (r *RedisAdapter) GetAll(ctx context.Context, userID string) ([]domain.Item, error) {
	fields, err := r.client.HGetAll(ctx, inventoryKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}

	items := make([]domain.Item, 0, len(fields))
	for name, raw := range fields {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse quantity of %q: %w", name, err)
		}
		items = append(items, domain.Item{Name: name, Quantity: quantity})
	}
	return items, nil
}

func (r *RedisAdapter) GetOne(ctx context.Context, userID, name string) (*domain.Item, error) {
	quantity, err := r.client.HGet(ctx, inventoryKey(userID), name).Int()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget: %w", err)
	}
	return &domain.Item{Name: name, Quantity: quantity}, nil
}

func (r *RedisAdapter) Set(ctx context.Context, userID string, item domain.Item) error {
	return r.client.HSet(ctx, inventoryKey(userID), item.Name, item.Quantity).Err()
}

func (r *RedisAdapter) Update(ctx context.Context, userID string, item domain.Item) error {
	updated, err := updateItemScript.Run(ctx, r.client, []string{inventoryKey(userID)}, item.Name, item.Quantity).Int()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if updated == 0 {
		return port.ErrDocumentNotFound
	}
	return nil
}

func (r *RedisAdapter) Delete(ctx context.Context, userID, name string) error {
	return r.client.HDel(ctx, inventoryKey(userID), name).Err()
}

func (r *RedisAdapter) Increment(ctx context.Context, userID, name string, delta int) (int, error) {
	result, err := incrementItemScript.Run(ctx, r.client, []string{inventoryKey(userID)}, name, delta, domain.MaxQuantity).Int()
	if err != nil {
		return 0, fmt.Errorf("increment item: %w", err)
	}
	switch result {
	case -1:
		return 0, port.ErrDocumentNotFound
	case -2:
		return 0, port.ErrQuantityOverflow
	}
	return result, nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
