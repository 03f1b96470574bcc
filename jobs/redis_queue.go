package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const queueKey = "houserent:jobs"

// RedisQueue stores tasks in a sorted set scored by due time. Any number of
// processes may poll it; ZREM decides which one runs a task.
type RedisQueue struct {
	cli     *redis.Client
	router  *Router
	log     *logrus.Logger
	poll    time.Duration
	workers int
	batch   int64
}

func NewRedisQueue(cli *redis.Client, router *Router, poll time.Duration, workers int, log *logrus.Logger) *RedisQueue {
	if poll <= 0 {
		poll = time.Second
	}
	if workers <= 0 {
		workers = 1
	}
	return &RedisQueue{cli: cli, router: router, log: log, poll: poll, workers: workers, batch: 100}
}

func (q *RedisQueue) Schedule(ctx context.Context, kind Kind, entityID uuid.UUID, delay time.Duration) error {
	task := NewTask(kind, entityID, time.Now().Add(delay))
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	z := redis.Z{Score: float64(task.DueAt.UnixMilli()), Member: string(body)}
	if err := q.cli.WithContext(ctx).ZAdd(queueKey, z).Err(); err != nil {
		return fmt.Errorf("schedule %s %s: %w", kind, entityID, err)
	}
	return nil
}

// Claim removes and returns the tasks due at now. A task claimed by another
// process is skipped.
func (q *RedisQueue) Claim(ctx context.Context, now time.Time) ([]Task, error) {
	cli := q.cli.WithContext(ctx)
	members, err := cli.ZRangeByScore(queueKey, redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: q.batch,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read due jobs: %w", err)
	}

	var due []Task
	for _, member := range members {
		removed, err := cli.ZRem(queueKey, member).Result()
		if err != nil {
			return due, fmt.Errorf("claim job: %w", err)
		}
		if removed == 0 {
			continue
		}
		var task Task
		if err := json.Unmarshal([]byte(member), &task); err != nil {
			q.log.WithError(err).WithField("member", member).Error("dropping undecodable job")
			continue
		}
		due = append(due, task)
	}
	return due, nil
}

// Run polls until ctx is cancelled and feeds due tasks to the worker pool.
func (q *RedisQueue) Run(ctx context.Context) error {
	tasks := make(chan Task)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tasks)
		ticker := time.NewTicker(q.poll)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				due, err := q.Claim(gctx, time.Now())
				if err != nil {
					q.log.WithError(err).Error("job poll failed")
				}
				for _, task := range due {
					select {
					case tasks <- task:
					case <-gctx.Done():
						return nil
					}
				}
			}
		}
	})

	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for task := range tasks {
				_ = q.router.Run(context.WithoutCancel(gctx), task)
			}
			return nil
		})
	}

	return g.Wait()
}
