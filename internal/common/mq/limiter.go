package mq

import "context"

// TokenLimiter bounds how many evaluations run concurrently. It is a
// channel-based counting semaphore; Acquire parks the caller until a slot
// frees up or the request context ends.
type TokenLimiter struct {
	slots chan struct{}
}

// NewTokenLimiter creates a limiter admitting at most size holders at once.
// A non-positive size falls back to 1.
func NewTokenLimiter(size int) *TokenLimiter {
	if size <= 0 {
		size = 1
	}
	return &TokenLimiter{slots: make(chan struct{}, size)}
}

// Acquire claims a slot, blocking until one is free or ctx is done.
func (l *TokenLimiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case l.slots <- struct{}{}:
		return nil
	}
}

// Release frees a slot. Releasing without a matching Acquire is a no-op.
func (l *TokenLimiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}
