package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBusyRetryGivesUpAfterAttempts(t *testing.T) {
	r := busyRetry{attempts: 3, initial: time.Millisecond, ceiling: 2 * time.Millisecond}
	calls := 0
	err := r.do(context.Background(), func() error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected 3 attempts and an error, got %d calls err=%v", calls, err)
	}
}

func TestBusyRetryStopsOnOtherErrors(t *testing.T) {
	r := busyRetry{attempts: 5, initial: time.Millisecond, ceiling: time.Millisecond}
	calls := 0
	want := errors.New("constraint failed")
	if err := r.do(context.Background(), func() error { calls++; return want }); !errors.Is(err, want) || calls != 1 {
		t.Fatalf("expected one attempt returning %v, got %d calls err=%v", want, calls, err)
	}
}

func TestBusyRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := busyRetry{attempts: 5, initial: time.Hour, ceiling: time.Hour}
	err := r.do(ctx, func() error { return errors.New("database is locked") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	for n, want := range map[int]string{0: "", 1: "?", 3: "?,?,?"} {
		if got := placeholders(n); got != want {
			t.Fatalf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}
