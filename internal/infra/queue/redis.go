package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"present-bag/internal/domain"
)

// RedisSeedQueue реализует очередь задач пополнения каталога на базе Redis lists.
type RedisSeedQueue struct {
	client *redis.Client
	key    string
}

// NewRedisSeedQueue создаёт очередь по указанному ключу.
func NewRedisSeedQueue(client *redis.Client, key string) *RedisSeedQueue {
	return &RedisSeedQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisSeedQueue) Enqueue(ctx context.Context, job domain.SeedJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди. BRPOP уже снимает задачу со
// списка, поэтому подтверждение — пустая операция.
func (q *RedisSeedQueue) Receive(ctx context.Context) (domain.SeedJob, func(ok bool) error, error) {
	noop := func(bool) error { return nil }
	for {
		if err := ctx.Err(); err != nil {
			return domain.SeedJob{}, noop, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.SeedJob{}, noop, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.SeedJob{}, noop, err
		}
		if len(res) != 2 {
			return domain.SeedJob{}, noop, errors.New("redis queue: unexpected response")
		}
		var job domain.SeedJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.SeedJob{}, noop, fmt.Errorf("decode job: %w", err)
		}
		return job, noop, nil
	}
}
