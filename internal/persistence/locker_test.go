package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalLockerSerialisesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "t1")
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			current := counter
			time.Sleep(time.Millisecond)
			counter = current + 1

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if counter != 20 {
		t.Fatalf("lost updates: counter = %d", counter)
	}
	if locker.size() != 0 {
		t.Fatalf("expected entries to be dropped, %d left", locker.size())
	}
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer releaseA()

	timeout, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	releaseB, err := locker.Acquire(timeout, "b")
	if err != nil {
		t.Fatalf("different key should not block: %v", err)
	}
	releaseB()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	release, err := locker.Acquire(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "t1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release()
	if locker.size() != 0 {
		t.Fatalf("expected entries to be dropped, %d left", locker.size())
	}
}
