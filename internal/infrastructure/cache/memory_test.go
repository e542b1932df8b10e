package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, "pipeline:stage:analysis", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = locker.Acquire(ctx, "pipeline:stage:analysis", time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire while held: ok=%v err=%v", ok, err)
	}

	// Different keys do not contend
	ok, err = locker.Acquire(ctx, "pipeline:stage:calendar-monitor", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire on other key: ok=%v err=%v", ok, err)
	}

	if err := locker.Release(ctx, "pipeline:stage:analysis"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = locker.Acquire(ctx, "pipeline:stage:analysis", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestMemoryLockerStopIsIdempotent(t *testing.T) {
	locker := NewMemoryLocker()
	locker.Stop()
	locker.Stop()

	// Locking still works after the cleanup goroutine exits; entries
	// expire lazily on the next Acquire
	if ok, err := locker.Acquire(context.Background(), "k", time.Minute); err != nil || !ok {
		t.Fatalf("acquire after stop: ok=%v err=%v", ok, err)
	}
}

func TestMemoryLockerTTLExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := locker.Acquire(ctx, "k", 10*time.Millisecond); !ok {
		t.Fatal("initial acquire failed")
	}

	time.Sleep(20 * time.Millisecond)

	if ok, _ := locker.Acquire(ctx, "k", time.Minute); !ok {
		t.Fatal("expired lock not reacquirable")
	}
}
