package mq

import (
	"context"
	"testing"
	"time"
)

func TestTokenLimiterCapacity(t *testing.T) {
	l := NewTokenLimiter(2)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := l.Acquire(timeoutCtx); err == nil {
		t.Fatal("third acquire should block until timeout")
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestTokenLimiterCanceledContext(t *testing.T) {
	l := NewTokenLimiter(1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestTokenLimiterZeroSizeDefaultsToOne(t *testing.T) {
	l := NewTokenLimiter(0)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Acquire(timeoutCtx); err == nil {
		t.Fatal("second acquire should block")
	}
}

func TestTokenLimiterExtraReleaseIsNoop(t *testing.T) {
	l := NewTokenLimiter(1)
	l.Release()
	l.Release()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
}
