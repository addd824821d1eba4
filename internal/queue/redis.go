package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"raidstats/internal/logging"
)

const (
	defaultRequestQueueKey = "stats_requests"
	dlqSuffix              = ":dlq"
	brPopBlock             = 5 * time.Second
	replyTTL               = 10 * time.Minute
)

// ErrMalformedJob marks a payload that can never succeed. Handlers wrap it
// so the consumer parks the payload on the dead-letter list.
var ErrMalformedJob = errors.New("malformed job")

// ListClient is the subset of the Redis client the queue uses.
type ListClient interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisQueue implements queue operations using Redis lists.
type RedisQueue struct {
	client ListClient
	key    string
}

// NewRedisQueue builds a Redis-backed queue helper.
func NewRedisQueue(client ListClient) *RedisQueue {
	return &RedisQueue{client: client, key: defaultRequestQueueKey}
}

// Reply pushes a response onto the caller's reply list. The list expires
// if nobody collects it.
func (q *RedisQueue) Reply(ctx context.Context, key string, payload []byte) error {
	if err := q.client.LPush(ctx, key, payload).Err(); err != nil {
		return err
	}
	return q.client.Expire(ctx, key, replyTTL).Err()
}

// Consume uses BRPOP to deliver jobs to the handler until the context is canceled.
func (q *RedisQueue) Consume(ctx context.Context, queueName string, handler func([]byte) error) error {
	logger := logging.Logger()
	if queueName == "" {
		queueName = q.key
	}
	dlqKey := queueName + dlqSuffix

	for {
		if ctx.Err() != nil {
			logger.Warnf("redis consumer exiting: %v", ctx.Err())
			return ctx.Err()
		}

		payload, ok := q.pop(ctx, queueName)
		if !ok {
			continue
		}
		q.dispatch(ctx, dlqKey, payload, handler)
	}
}

// ConsumeConcurrent uses BRPOP to feed jobs to a worker pool for concurrent processing.
func (q *RedisQueue) ConsumeConcurrent(ctx context.Context, queueName string, workerCount, bufferSize int, handler func([]byte) error) error {
	logger := logging.Logger()
	if queueName == "" {
		queueName = q.key
	}
	dlqKey := queueName + dlqSuffix

	// Create job channel for workers
	jobChan := make(chan []byte, bufferSize)
	var wg sync.WaitGroup

	// Start worker goroutines
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for payload := range jobChan {
				q.dispatch(ctx, dlqKey, payload, handler)
			}
			logger.Infof("worker %d: exiting", workerID)
		}(i)
	}

	logger.Infof("started %d concurrent workers for queue %s", workerCount, queueName)

	stop := func() error {
		close(jobChan)
		wg.Wait()
		return ctx.Err()
	}

	// BRPOP loop feeding jobs to workers
	for {
		if ctx.Err() != nil {
			logger.Warnf("redis consumer exiting: %v", ctx.Err())
			return stop()
		}

		payload, ok := q.pop(ctx, queueName)
		if !ok {
			continue
		}

		select {
		case jobChan <- payload:
			// Job submitted to worker pool
		case <-ctx.Done():
			return stop()
		}
	}
}

// pop blocks for up to brPopBlock waiting for a job.
func (q *RedisQueue) pop(ctx context.Context, queueName string) ([]byte, bool) {
	result, err := q.client.BRPop(ctx, brPopBlock, queueName).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logging.Logger().Warnf("redis BRPOP error: %v", err)
		}
		return nil, false
	}
	if len(result) < 2 {
		return nil, false
	}
	return []byte(result[1]), true
}

// dispatch runs the handler once. Failed runs are not retried; malformed
// payloads are parked on the dead-letter list for inspection.
func (q *RedisQueue) dispatch(ctx context.Context, dlqKey string, payload []byte, handler func([]byte) error) {
	logger := logging.Logger()
	err := handler(payload)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedJob):
		logger.Warnf("moving malformed job to DLQ: %v", err)
		if err := q.client.LPush(ctx, dlqKey, payload).Err(); err != nil {
			logger.Errorf("DLQ push failed: %v", err)
		}
	default:
		logger.Errorf("job failed: %v", err)
	}
}
