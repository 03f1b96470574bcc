package registry

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
)

const keyPrefix = "houserent:connections:"

// compare-and-delete: only drop the field while it still holds our handle
const unregisterScript = `
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0`

// RedisRegistry keeps one hash per topic, field = identity, value = handle.
type RedisRegistry struct {
	cli *redis.Client
}

func NewRedisRegistry(cli *redis.Client) *RedisRegistry {
	return &RedisRegistry{cli: cli}
}

func key(topic Topic) string {
	return keyPrefix + string(topic)
}

func (r *RedisRegistry) Register(ctx context.Context, topic Topic, identity, handle string) error {
	if err := r.cli.WithContext(ctx).HSet(key(topic), identity, handle).Err(); err != nil {
		return fmt.Errorf("register %s on %s: %w", identity, topic, err)
	}
	return nil
}

func (r *RedisRegistry) Unregister(ctx context.Context, topic Topic, identity, handle string) error {
	err := r.cli.WithContext(ctx).Eval(unregisterScript, []string{key(topic)}, identity, handle).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("unregister %s on %s: %w", identity, topic, err)
	}
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, topic Topic, identity string) (string, bool, error) {
	handle, err := r.cli.WithContext(ctx).HGet(key(topic), identity).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s on %s: %w", identity, topic, err)
	}
	return handle, true, nil
}
