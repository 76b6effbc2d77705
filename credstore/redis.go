package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeySuffix = "credentials"

// Redis persists the slot under a single key, for headless embedders (server
// agents, kiosk supervisors) that share one session slot across processes.
// Other processes observe a login/logout on their next Load only.
type Redis struct {
	redis *redis.Client
	key   string
}

// NewRedis returns a store writing to "<prefix>:credentials".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "afc"
	}
	return &Redis{
		redis: client,
		key:   prefix + ":" + redisKeySuffix,
	}
}

// Save overwrites the slot. No TTL: the backend decides token lifetime.
func (r *Redis) Save(ctx context.Context, creds Credentials) error {
	encoded, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Load reads the slot; an absent key is an empty slot.
func (r *Redis) Load(ctx context.Context) (Credentials, bool, error) {
	raw, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, false, nil
	}
	if creds.Token == "" {
		return Credentials{}, false, nil
	}

	return creds, true, nil
}

// Clear deletes the key. Deleting an absent key is a no-op.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
