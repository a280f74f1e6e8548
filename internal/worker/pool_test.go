package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(2)
	var active, maxActive int32

	for i := 0; i < 10; i++ {
		p.Go(context.Background(), func() error {
			n := atomic.AddInt32(&active, 1)
			for {
				cur := atomic.LoadInt32(&maxActive)
				if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
					break
				}
			}
			atomic.AddInt32(&active, -1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxActive > 2 {
		t.Fatalf("pool exceeded its bound: max observed concurrency %d", maxActive)
	}
}

func TestPoolWaitReturnsFirstError(t *testing.T) {
	p := New(4)
	want := errors.New("boom")

	p.Go(context.Background(), func() error { return nil })
	p.Go(context.Background(), func() error { return want })
	p.Go(context.Background(), func() error { return errors.New("second") })

	err := p.Wait()
	if err == nil {
		t.Fatal("expected an error from Wait")
	}
}

func TestPoolGoRespectsCancelledContext(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	p.Go(ctx, func() error {
		ran = true
		return nil
	})
	if err := p.Wait(); err == nil {
		t.Fatal("expected a cancellation error from Wait")
	}
	if ran {
		t.Fatal("task should not have run once its context was already cancelled")
	}
}
