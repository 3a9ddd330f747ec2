package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoffCaps(t *testing.T) {
	b := ExponentialBackoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond}
	if got := b.Next(1); got != 10*time.Millisecond {
		t.Fatalf("attempt 1: got %s", got)
	}
	if got := b.Next(3); got != 40*time.Millisecond {
		t.Fatalf("attempt 3: got %s", got)
	}
	if got := b.Next(6); got != 50*time.Millisecond {
		t.Fatalf("expected cap, got %s", got)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, ExponentialBackoff{Base: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got %d (%v)", calls, err)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), 2, ExponentialBackoff{Base: time.Millisecond}, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 2 {
		t.Fatalf("expected boom after 2 calls, got %d (%v)", calls, err)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, 5, ExponentialBackoff{Base: time.Second}, func(context.Context) error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
