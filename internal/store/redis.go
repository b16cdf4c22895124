package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ErraticFox/atov/internal/shift"
)

const statePrefix = "atov:state:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Redis persists RunState as JSON at atov:state:<pageType>.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, pt shift.PageType) (shift.RunState, bool, error) {
	raw, err := r.rdb.Get(ctx, statePrefix+string(pt)).Bytes()
	if err == redis.Nil {
		return shift.RunState{}, false, nil
	}
	if err != nil {
		return shift.RunState{}, false, fmt.Errorf("store: get %s: %w", pt, err)
	}
	var st shift.RunState
	if err := json.Unmarshal(raw, &st); err != nil {
		return shift.RunState{}, false, fmt.Errorf("store: decode %s: %w", pt, err)
	}
	return st, true, nil
}

func (r *Redis) Set(ctx context.Context, pt shift.PageType, st shift.RunState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", pt, err)
	}
	if err := r.rdb.Set(ctx, statePrefix+string(pt), raw, 0).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", pt, err)
	}
	return nil
}
