package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis"
)

var ErrNodeUnreachable = errors.New("no subscriber for node")

// Bus moves frames between nodes.
type Bus interface {
	Publish(ctx context.Context, nodeID string, frame []byte) error
	Subscribe(ctx context.Context, nodeID string) (<-chan []byte, func() error, error)
}

const nodeChannelPrefix = "houserent:node:"

type RedisBus struct {
	cli *redis.Client
}

func NewRedisBus(cli *redis.Client) *RedisBus {
	return &RedisBus{cli: cli}
}

func (b *RedisBus) Publish(ctx context.Context, nodeID string, frame []byte) error {
	receivers, err := b.cli.WithContext(ctx).Publish(nodeChannelPrefix+nodeID, string(frame)).Result()
	if err != nil {
		return fmt.Errorf("publish to node %s: %w", nodeID, err)
	}
	if receivers == 0 {
		return fmt.Errorf("%w %s", ErrNodeUnreachable, nodeID)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, nodeID string) (<-chan []byte, func() error, error) {
	sub := b.cli.Subscribe(nodeChannelPrefix + nodeID)
	if _, err := sub.Receive(); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe node %s: %w", nodeID, err)
	}

	out := make(chan []byte)
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
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}
