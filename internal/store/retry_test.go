package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryRecoversFromConflicts(t *testing.T) {
	retries := 0
	p := RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond, OnRetry: func(backend string) {
		if backend != "test" {
			t.Fatalf("unexpected backend %q", backend)
		}
		retries++
	}}
	calls := 0
	err := p.retry(context.Background(), "test", "atomic", func() error {
		calls++
		if calls < 3 {
			return errConflict
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Fatalf("expected 3 calls and 2 retries, got %d and %d", calls, retries)
	}
}

func TestRetryExhaustionIsTransient(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond}
	calls := 0
	err := p.retry(context.Background(), "test", "atomic", func() error {
		calls++
		return errConflict
	})
	var se *Error
	if !errors.As(err, &se) || !se.Transient {
		t.Fatalf("expected transient store error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	p := RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond}
	calls := 0
	err := p.retry(context.Background(), "test", "atomic", func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-conflict errors should not be retried, got %d calls", calls)
	}
}

func TestRetryDefaults(t *testing.T) {
	p := RetryPolicy{}.withDefaults()
	if p.MaxAttempts != defaultRetryAttempts || p.MaxElapsed != defaultMaxElapsed || p.Initial != defaultInitial {
		t.Fatalf("unexpected defaults %+v", p)
	}
}
