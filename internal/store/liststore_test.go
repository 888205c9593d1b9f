package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetCachesUntilInvalidated(t *testing.T) {
	s := New[int](0)
	var calls int32
	fetch := func(ctx context.Context) ([]int, error) {
		n := atomic.AddInt32(&calls, 1)
		return []int{int(n)}, nil
	}
	ctx := context.Background()

	first, err := s.Get(ctx, "bills:admin", fetch)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, _ := s.Get(ctx, "bills:admin", fetch)
	if calls != 1 || first[0] != 1 || second[0] != 1 {
		t.Fatalf("expected one fetch, got %d (first=%v second=%v)", calls, first, second)
	}

	s.Invalidate("bills")
	third, _ := s.Get(ctx, "bills:admin", fetch)
	if calls != 2 || third[0] != 2 {
		t.Fatalf("expected a refetch after invalidation, calls=%d third=%v", calls, third)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	s := New[string](0)
	fetch := func(ctx context.Context) ([]string, error) { return []string{"a", "b"}, nil }
	got, _ := s.Get(context.Background(), "k", fetch)
	got[0] = "mutated"
	again, _ := s.Get(context.Background(), "k", fetch)
	if again[0] != "a" {
		t.Fatalf("caller mutation leaked into the store: %v", again)
	}
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	s := New[int](0)
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []int{7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Get(context.Background(), "tenants", fetch); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected 1 backend fetch, got %d", calls)
	}
}

func TestFetchLandingAfterInvalidateIsNotCached(t *testing.T) {
	s := New[int](0)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) ([]int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(started)
			<-release
		}
		return []int{int(n)}, nil
	}

	done := make(chan []int)
	go func() {
		items, _ := s.Get(context.Background(), "bills:admin", fetch)
		done <- items
	}()
	<-started
	s.Invalidate("bills")
	close(release)
	if stale := <-done; stale[0] != 1 {
		t.Fatalf("waiter should still get its own result, got %v", stale)
	}

	fresh, _ := s.Get(context.Background(), "bills:admin", fetch)
	if fresh[0] != 2 {
		t.Fatalf("stale fetch was cached: %v", fresh)
	}
}

func TestGetStopsWaitingWhenContextEnds(t *testing.T) {
	s := New[int](0)
	release := make(chan struct{})
	defer close(release)
	fetch := func(ctx context.Context) ([]int, error) {
		<-release
		return []int{1}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Get(ctx, "k", fetch)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	s := New[int](time.Minute)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	var calls int32
	fetch := func(ctx context.Context) ([]int, error) {
		atomic.AddInt32(&calls, 1)
		return []int{1}, nil
	}
	_, _ = s.Get(context.Background(), "k", fetch)
	now = now.Add(2 * time.Minute)
	_, _ = s.Get(context.Background(), "k", fetch)
	if calls != 2 {
		t.Fatalf("expected refetch after ttl, calls=%d", calls)
	}
}

func TestFetchErrorIsNotCached(t *testing.T) {
	s := New[int](0)
	boom := errors.New("backend down")
	var calls int32
	fetch := func(ctx context.Context) ([]int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return []int{1}, nil
	}
	if _, err := s.Get(context.Background(), "k", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if _, err := s.Get(context.Background(), "k", fetch); err != nil {
		t.Fatalf("retry should fetch again: %v", err)
	}
}
