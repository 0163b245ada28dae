package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestEnqueueAfterCloseIsRejected(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 4, Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "noop", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestCloseRunsAcceptedJobs(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 16, Workers: 2})

	accepted := 0
	var ran int32
	for i := 0; i < 8; i++ {
		err := d.Enqueue(context.Background(), "count", func() error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		if err == nil {
			accepted++
		}
	}
	d.Close()

	if got := int(atomic.LoadInt32(&ran)); got != accepted {
		t.Fatalf("ran %d jobs, accepted %d", got, accepted)
	}
}

func TestConcurrentEnqueueAndClose(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 2})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.Enqueue(context.Background(), "noop", func() error { return nil })
			if err != nil && !errors.Is(err, ErrQueueClosed) && !errors.Is(err, ErrQueueFull) {
				t.Errorf("unexpected enqueue error: %v", err)
			}
		}()
	}
	d.Close()
	wg.Wait()
}
