package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPacer_MinimumSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	pacer := New(interval)
	ctx := context.Background()

	const n = 4
	start := time.Now()
	var starts [n]time.Time

	for i := 0; i < n; i++ {
		if err := pacer.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		starts[i] = time.Now()
		pacer.Completed()
	}

	span := starts[n-1].Sub(start)
	min := time.Duration(n-1) * interval
	if span < min {
		t.Errorf("span from first to %dth request start = %v, want >= %v", n, span, min)
	}
}

func TestPacer_DisabledIntervals(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{name: "zero interval", interval: 0},
		{name: "negative interval", interval: -1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pacer := New(tt.interval)
			ctx := context.Background()

			start := time.Now()
			for i := 0; i < 10; i++ {
				if err := pacer.Wait(ctx); err != nil {
					t.Fatalf("Wait() error = %v", err)
				}
				pacer.Completed()
			}

			if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
				t.Errorf("10 waits took %v, expected no pacing delay", elapsed)
			}
		})
	}
}

func TestPacer_ConcurrentCallersSpaced(t *testing.T) {
	interval := 30 * time.Millisecond
	pacer := New(interval)
	ctx := context.Background()

	const n = 5
	var mu sync.Mutex
	starts := make([]time.Time, 0, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pacer.Wait(ctx); err != nil {
				t.Errorf("Wait() error = %v", err)
				return
			}
			now := time.Now()
			mu.Lock()
			starts = append(starts, now)
			mu.Unlock()
			pacer.Completed()
		}()
	}
	wg.Wait()

	if len(starts) != n {
		t.Fatalf("got %d request starts, want %d", len(starts), n)
	}

	// No ordering guarantee among waiters, so sort by start time and check
	// pairwise spacing. Allow a small scheduling tolerance.
	sortTimes(starts)
	tolerance := 5 * time.Millisecond
	for i := 1; i < n; i++ {
		gap := starts[i].Sub(starts[i-1])
		if gap < interval-tolerance {
			t.Errorf("gap between request %d and %d = %v, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestPacer_CompletedExtendsWait(t *testing.T) {
	interval := 60 * time.Millisecond
	pacer := New(interval)
	ctx := context.Background()

	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// Simulate a slow request: completion lands well after the grant.
	time.Sleep(40 * time.Millisecond)
	pacer.Completed()
	completedAt := time.Now()

	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// Spacing is measured from the previous request's end, not its start.
	if gap := time.Since(completedAt); gap < interval-5*time.Millisecond {
		t.Errorf("second Wait returned %v after completion, want >= %v", gap, interval)
	}
}

func TestPacer_WaitHonorsContextCancellation(t *testing.T) {
	pacer := New(1 * time.Second)
	ctx := context.Background()

	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	pacer.Completed()

	cancelCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := pacer.Wait(cancelCtx)
	if err == nil {
		t.Fatal("Wait() = nil, want context error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancelled Wait took %v, expected prompt return", elapsed)
	}
}

func TestPacer_Interval(t *testing.T) {
	pacer := New(250 * time.Millisecond)
	if got := pacer.Interval(); got != 250*time.Millisecond {
		t.Errorf("Interval() = %v, want 250ms", got)
	}
}

// sortTimes sorts a small slice of timestamps in place.
func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}
