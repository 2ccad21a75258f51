package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{}, 3)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var calls int32
	var lastAttempt int32
	finished := make(chan struct{})

	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.StoreInt32(&lastAttempt, int32(job.Attempt))
		if atomic.AddInt32(&calls, 1) == 3 {
			close(finished)
		}
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for retries")
	}
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&lastAttempt))
}

func TestQueueResultHook(t *testing.T) {
	results := make(chan error, 1)
	q := NewQueue("hook", func(ctx context.Context, job Job) error {
		return nil
	}, QueueConfig{OnResult: func(job Job, err error, elapsed time.Duration) {
		results <- err
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	select {
	case err := <-results:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("hook not called")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	assert.ErrorIs(t, err, ErrNotStarted)
}
