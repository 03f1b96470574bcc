package pricing

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
)

// Invalidations carries "price table changed" events between nodes.
type Invalidations interface {
	Publish(ctx context.Context, objectID uuid.UUID) error
	Subscribe(ctx context.Context) (<-chan uuid.UUID, func() error, error)
}

const invalidationChannel = "houserent:prices"

type RedisInvalidations struct {
	cli *redis.Client
}

func NewRedisInvalidations(cli *redis.Client) *RedisInvalidations {
	return &RedisInvalidations{cli: cli}
}

func (b *RedisInvalidations) Publish(ctx context.Context, objectID uuid.UUID) error {
	if err := b.cli.WithContext(ctx).Publish(invalidationChannel, objectID.String()).Err(); err != nil {
		return fmt.Errorf("publish price invalidation: %w", err)
	}
	return nil
}

func (b *RedisInvalidations) Subscribe(ctx context.Context) (<-chan uuid.UUID, func() error, error) {
	sub := b.cli.Subscribe(invalidationChannel)
	if _, err := sub.Receive(); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe price invalidations: %w", err)
	}

	out := make(chan uuid.UUID)
	go func() {
		defer close(out)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				id, err := uuid.Parse(msg.Payload)
				if err != nil {
					continue
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}
