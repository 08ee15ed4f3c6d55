package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"communityhub/internal/domain"
)

func TestMemory_MutualExclusion(t *testing.T) {
	locker := NewMemory()
	const workers = 20
	var inside, maxInside, counter int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "k", time.Second, func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				counter++
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most 1 holder at a time, saw %d", maxInside)
	}
	if counter != workers {
		t.Fatalf("expected %d executions, got %d", workers, counter)
	}
}

func TestMemory_DistinctKeysDoNotBlock(t *testing.T) {
	locker := NewMemory()
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), "a", time.Second, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	done := make(chan error, 1)
	go func() {
		done <- locker.WithLock(context.Background(), "b", 50*time.Millisecond, func(ctx context.Context) error {
			return nil
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("distinct key should acquire immediately: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("acquisition of a distinct key blocked")
	}
}

func TestMemory_Timeout(t *testing.T) {
	locker := NewMemory()
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), "k", time.Second, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err := locker.WithLock(context.Background(), "k", 20*time.Millisecond, func(ctx context.Context) error {
		t.Fatal("fn must not run after timeout")
		return nil
	})
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestMemory_ContextCancelled(t *testing.T) {
	locker := NewMemory()
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), "k", time.Second, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := locker.WithLock(ctx, "k", time.Second, func(ctx context.Context) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemory_ReleasedOnError(t *testing.T) {
	locker := NewMemory()
	wantErr := errors.New("boom")
	err := locker.WithLock(context.Background(), "k", time.Second, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error returned, got %v", err)
	}
	// The key must be free for the next caller.
	err = locker.WithLock(context.Background(), "k", 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("lock not released after error: %v", err)
	}
}
