package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffRetriesUntilSuccess(t *testing.T) {
	b := Backoff{Attempts: 3, Wait: time.Millisecond}
	calls := 0
	err := b.Run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestBackoffExhaustsAttempts(t *testing.T) {
	b := Backoff{Attempts: 2, Wait: time.Millisecond}
	calls := 0
	err := b.Run(context.Background(), func() error {
		calls++
		return errors.New("permanent")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestBackoffRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := Backoff{Attempts: 3, Wait: time.Millisecond}
	calls := 0
	err := b.Run(ctx, func() error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 since context was already cancelled", calls)
	}
}
