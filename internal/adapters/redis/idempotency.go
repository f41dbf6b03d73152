package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency persists completed responses keyed by Idempotency-Key so a
// retried booking request replays its original outcome instead of running
// the confirmation protocol twice.
type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

const idempPrefix = "idemp:"

type IdempResponse struct {
	Status     int       `json:"status"`
	Result     []byte    `json:"result"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (i *Idempotency) Get(ctx context.Context, key string) (*IdempResponse, error) {
	val, err := i.client.Get(ctx, idempPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp IdempResponse
	err = json.Unmarshal(val, &resp)
	return &resp, err
}

// Set records a completed response. SetNX keeps the first recorded
// outcome when two retries race to store theirs.
func (i *Idempotency) Set(ctx context.Context, key string, resp IdempResponse, ttl time.Duration) error {
	if resp.RecordedAt.IsZero() {
		resp.RecordedAt = time.Now()
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return i.client.SetNX(ctx, idempPrefix+key, data, ttl).Err()
}
