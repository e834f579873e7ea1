package booking

import (
	"context"
	"sync"
	"time"
)

// staffLocks serializes the check-then-create sequence per staff member.
// Acquisition is bounded: callers that cannot take the lock within the timeout
// get lock contention surfaced as a retryable failure instead of blocking.
type staffLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newStaffLocks() *staffLocks {
	return &staffLocks{locks: map[string]chan struct{}{}}
}

// acquire returns a release func, or an error on timeout/cancellation.
func (l *staffLocks) acquire(ctx context.Context, staffID string, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[staffID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[staffID] = ch
	}
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, newError(KindSlotUnavailable, "staff member %s is busy, retry shortly", staffID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
