package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ckartal/snipebot/internal/domain"
)

// PriceCache is the concrete price oracle. The feed layer writes quotes in,
// the engine reads them out. Each mint's quote is a hash at "quote:{mint}"
// with optional "current_price" and "price" fields plus a "ts" timestamp;
// both price fields are kept because some feed sources only populate the
// legacy one.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client. A non-zero
// ttl expires quotes so the engine sees a missing price instead of an
// arbitrarily stale one.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(mint string) string {
	return "quote:" + mint
}

// SetPrice stores the latest quote for a mint.
func (pc *PriceCache) SetPrice(ctx context.Context, mint string, info domain.PriceInfo) error {
	fields := map[string]interface{}{
		"ts": strconv.FormatInt(time.Now().UnixNano(), 10),
	}
	if info.CurrentPrice != nil {
		fields["current_price"] = strconv.FormatFloat(*info.CurrentPrice, 'f', -1, 64)
	}
	if info.Price != nil {
		fields["price"] = strconv.FormatFloat(*info.Price, 'f', -1, 64)
	}

	key := quoteKey(mint)
	if err := pc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", mint, err)
	}
	if pc.ttl > 0 {
		if err := pc.rdb.Expire(ctx, key, pc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire quote %s: %w", mint, err)
		}
	}
	return nil
}

// Lookup retrieves the latest quote for a mint. It returns
// domain.ErrNotFound when the mint has never been quoted (or the quote
// expired); malformed fields are simply absent from the result.
func (pc *PriceCache) Lookup(ctx context.Context, mint string) (domain.PriceInfo, error) {
	vals, err := pc.rdb.HGetAll(ctx, quoteKey(mint)).Result()
	if err != nil {
		return domain.PriceInfo{}, fmt.Errorf("redis: get quote %s: %w", mint, err)
	}
	if len(vals) == 0 {
		return domain.PriceInfo{}, domain.ErrNotFound
	}

	var info domain.PriceInfo
	if raw, ok := vals["current_price"]; ok {
		if p, err := strconv.ParseFloat(raw, 64); err == nil {
			info.CurrentPrice = &p
		}
	}
	if raw, ok := vals["price"]; ok {
		if p, err := strconv.ParseFloat(raw, 64); err == nil {
			info.Price = &p
		}
	}
	return info, nil
}

// Compile-time interface checks.
var (
	_ domain.PriceOracle = (*PriceCache)(nil)
	_ domain.PriceSink   = (*PriceCache)(nil)
)
