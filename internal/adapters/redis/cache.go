package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const occupancyKey = "seatstatus:occupancy"

// Cache holds the viewer-independent seat occupancy snapshot. Staleness
// here only affects display; the booking write path always re-validates
// against the authoritative store.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

// SetOccupancy stores the serialized occupancy snapshot with a TTL so a
// dead status worker degrades to store reads instead of stale data.
func (c *Cache) SetOccupancy(ctx context.Context, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, occupancyKey, data, ttl).Err()
}

// GetOccupancy returns the cached snapshot, or nil on a miss.
func (c *Cache) GetOccupancy(ctx context.Context) ([]byte, error) {
	data, err := c.client.Get(ctx, occupancyKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
