package rules

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/angelmondragon/seedling-limiter/pkg/redis"
)

const versionCounter = "limiter_rules_version"

// VersionStore tracks a shared configuration version so every API instance
// can tell when another one changed the stored rules.
type VersionStore interface {
	Bump(ctx context.Context) (int64, error)
	Current(ctx context.Context) (int64, error)
}

type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	CounterKey(name string) string
}

// RedisVersion keeps the rules version in a Redis counter.
type RedisVersion struct {
	kv  counterStore
	key string
}

func NewRedisVersion(kv counterStore) (*RedisVersion, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisVersion{kv: kv, key: kv.CounterKey(versionCounter)}, nil
}

func (v *RedisVersion) Bump(ctx context.Context) (int64, error) {
	return v.kv.Incr(ctx, v.key)
}

// Current returns the shared version; an unset counter reads as zero.
func (v *RedisVersion) Current(ctx context.Context) (int64, error) {
	raw, err := v.kv.Get(ctx, v.key)
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return 0, nil
		}
		return 0, err
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rules version %q: %w", raw, err)
	}
	return version, nil
}
