package booking

import (
	"context"
	"testing"
	"time"
)

func TestStaffLocksAcquireTimeout(t *testing.T) {
	locks := newStaffLocks()
	ctx := context.Background()

	release, err := locks.acquire(ctx, "staff-1", time.Second)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	// Held lock: a second acquire times out with a retryable kind.
	_, err = locks.acquire(ctx, "staff-1", 20*time.Millisecond)
	if KindOf(err) != KindSlotUnavailable {
		t.Fatalf("expected slot_unavailable on contention, got %v", err)
	}

	// Independent staff members do not contend.
	release2, err := locks.acquire(ctx, "staff-2", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire for other staff failed: %v", err)
	}
	release2()

	release()
	release3, err := locks.acquire(ctx, "staff-1", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release3()
}

func TestStaffLocksContextCancelled(t *testing.T) {
	locks := newStaffLocks()

	release, err := locks.acquire(context.Background(), "staff-1", time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locks.acquire(ctx, "staff-1", time.Second); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
