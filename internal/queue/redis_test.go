package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeList serves queued payloads to BRPOP and cancels the consumer once
// the queue is drained.
type fakeList struct {
	mu      sync.Mutex
	items   []string
	pushed  map[string][]string
	expires map[string]time.Duration
	popErr  error
	cancel  context.CancelFunc
}

func newFakeList(cancel context.CancelFunc, items ...string) *fakeList {
	return &fakeList{
		items:   items,
		pushed:  make(map[string][]string),
		expires: make(map[string]time.Duration),
		cancel:  cancel,
	}
}

func (f *fakeList) BRPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.popErr != nil {
		err := f.popErr
		f.popErr = nil
		return redis.NewStringSliceResult(nil, err)
	}
	if len(f.items) == 0 {
		f.cancel()
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	item := f.items[0]
	f.items = f.items[1:]
	return redis.NewStringSliceResult([]string{keys[0], item}, nil)
}

func (f *fakeList) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		switch b := v.(type) {
		case []byte:
			f.pushed[key] = append(f.pushed[key], string(b))
		default:
			f.pushed[key] = append(f.pushed[key], fmt.Sprint(b))
		}
	}
	return redis.NewIntResult(int64(len(f.pushed[key])), nil)
}

func (f *fakeList) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestConsume_DispatchesAndParksMalformed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	list := newFakeList(cancel, "good", "bad", "fails")
	list.popErr = errors.New("connection reset")

	var handled []string
	err := NewRedisQueue(list).Consume(ctx, "jobs", func(p []byte) error {
		handled = append(handled, string(p))
		switch string(p) {
		case "bad":
			return fmt.Errorf("%w: no reply_to", ErrMalformedJob)
		case "fails":
			return errors.New("upstream down")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"good", "bad", "fails"}, handled)
	assert.Equal(t, []string{"bad"}, list.pushed["jobs:dlq"])
	assert.NotContains(t, list.pushed, "jobs", "failed jobs are not requeued")
}

func TestConsumeConcurrent_ProcessesEveryJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := make([]string, 20)
	for i := range jobs {
		jobs[i] = fmt.Sprintf("job-%d", i)
	}
	list := newFakeList(cancel, jobs...)

	var mu sync.Mutex
	seen := make(map[string]bool)
	err := NewRedisQueue(list).ConsumeConcurrent(ctx, "", 4, 2, func(p []byte) error {
		mu.Lock()
		defer mu.Unlock()
		seen[string(p)] = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, len(jobs))
}

func TestReply(t *testing.T) {
	list := newFakeList(func() {})

	err := NewRedisQueue(list).Reply(context.Background(), "reply:abc", []byte(`{"ok":true}`))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"ok":true}`}, list.pushed["reply:abc"])
	assert.Equal(t, replyTTL, list.expires["reply:abc"])
}
