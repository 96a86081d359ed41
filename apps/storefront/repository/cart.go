package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartRepository 购物车存储在 Redis Hash 中：field 为 ornamentId，value 为数量
type CartRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCartRepository(rdb *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{rdb: rdb, ttl: ttl}
}

// UserCartKey 登录用户购物车
func UserCartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

// GuestCartKey 游客购物车
func GuestCartKey(guestID string) string {
	return "cart:guest:" + guestID
}

// Items 读取购物车，key 不存在时返回空 map
func (r *CartRepository) Items(ctx context.Context, key string) (map[uint]int, error) {
	val, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	return parseItems(val), nil
}

// Exists 购物车是否存在
func (r *CartRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Touch 创建空购物车占位，使 Exists 为 true
func (r *CartRepository) Touch(ctx context.Context, key string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, key, "_", 0)
		r.expire(ctx, p, key)
		return nil
	})
	return err
}

// Add 累加数量
func (r *CartRepository) Add(ctx context.Context, key string, ornamentID uint, qty int) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, key, field(ornamentID), int64(qty))
		r.expire(ctx, p, key)
		return nil
	})
	return err
}

// Set 直接设置数量，条目不存在时返回 false
func (r *CartRepository) Set(ctx context.Context, key string, ornamentID uint, qty int) (bool, error) {
	ok, err := r.rdb.HExists(ctx, key, field(ornamentID)).Result()
	if err != nil || !ok {
		return false, err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, field(ornamentID), qty)
		r.expire(ctx, p, key)
		return nil
	})
	return err == nil, err
}

// Remove 删除条目
func (r *CartRepository) Remove(ctx context.Context, key string, ornamentID uint) error {
	return r.rdb.HDel(ctx, key, field(ornamentID)).Err()
}

// Merge 把 from 的数量累加到 to 后删除 from
func (r *CartRepository) Merge(ctx context.Context, from, to string) error {
	items, err := r.Items(ctx, from)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return r.rdb.Del(ctx, from).Err()
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for id, qty := range items {
			p.HIncrBy(ctx, to, field(id), int64(qty))
		}
		r.expire(ctx, p, to)
		p.Del(ctx, from)
		return nil
	})
	return err
}

func (r *CartRepository) expire(ctx context.Context, p redis.Pipeliner, key string) {
	if r.ttl > 0 {
		p.Expire(ctx, key, r.ttl)
	}
}

func field(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// parseItems 跳过占位字段和无法解析的条目
func parseItems(val map[string]string) map[uint]int {
	items := make(map[uint]int, len(val))
	for k, v := range val {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		items[uint(id)] = qty
	}
	return items
}
