package keyqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestSameKeyFIFO submits many ops under one key and checks they ran one at a
// time in submission order.
func TestSameKeyFIFO(t *testing.T) {
	q := New[string]()

	var (
		mu      sync.Mutex
		order   []int
		running int
	)
	const n = 50
	futures := make([]*Future[int], 0, n)
	for i := 0; i < n; i++ {
		i := i
		futures = append(futures, Submit(q, "k", func() (int, error) {
			mu.Lock()
			running++
			if running != 1 {
				mu.Unlock()
				return 0, errors.New("concurrent execution on same key")
			}
			mu.Unlock()

			if i%7 == 0 {
				time.Sleep(time.Millisecond)
			}

			mu.Lock()
			order = append(order, i)
			running--
			mu.Unlock()
			return i, nil
		}))
	}

	for i, f := range futures {
		v, err := f.Result()
		if err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if v != i {
			t.Fatalf("op %d settled with %d", i, v)
		}
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d]=%d, want %d (order=%v)", i, got, i, order)
		}
	}
}

// TestDistinctKeysIndependent: a slow op on k1 must not hold back k2.
func TestDistinctKeysIndependent(t *testing.T) {
	q := New[string]()
	release := make(chan struct{})

	slow := Submit(q, "k1", func() (string, error) {
		<-release
		return "slow", nil
	})
	fast := Submit(q, "k2", func() (string, error) { return "fast", nil })

	select {
	case <-fast.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("op on k2 blocked behind k1")
	}
	select {
	case <-slow.Done():
		t.Fatalf("slow op settled before release")
	default:
	}

	close(release)
	if v, err := slow.Result(); err != nil || v != "slow" {
		t.Fatalf("slow: v=%q err=%v", v, err)
	}
}

func TestBookkeepingRemovedWhenDrained(t *testing.T) {
	q := New[string]()
	gate := make(chan struct{})

	f1 := Submit(q, "a", func() (int, error) { <-gate; return 1, nil })
	f2 := Submit(q, "a", func() (int, error) { return 2, nil })
	f3 := Submit(q, "b", func() (int, error) { <-gate; return 3, nil })

	if got := q.Pending("a"); got != 2 {
		t.Fatalf("Pending(a)=%d, want 2", got)
	}
	if got := q.Len(); got != 2 {
		t.Fatalf("Len=%d, want 2", got)
	}

	close(gate)
	for _, f := range []*Future[int]{f1, f2, f3} {
		if _, err := f.Result(); err != nil {
			t.Fatal(err)
		}
	}

	if got := q.Len(); got != 0 {
		t.Fatalf("Len after drain=%d, want 0", got)
	}
	if got := q.Pending("a"); got != 0 {
		t.Fatalf("Pending(a) after drain=%d, want 0", got)
	}
}

func TestFailureDoesNotAbortChain(t *testing.T) {
	q := New[int]()
	boom := errors.New("boom")

	f1 := Submit(q, 1, func() (string, error) { return "", boom })
	f2 := Submit(q, 1, func() (string, error) { return "after", nil })

	if _, err := f1.Result(); !errors.Is(err, boom) {
		t.Fatalf("f1 err=%v, want boom", err)
	}
	if v, err := f2.Result(); err != nil || v != "after" {
		t.Fatalf("f2: v=%q err=%v", v, err)
	}
}

func TestPanicBecomesError(t *testing.T) {
	q := New[string]()

	f1 := Submit(q, "p", func() (int, error) { panic("kaboom") })
	f2 := Submit(q, "p", func() (int, error) { return 7, nil })

	_, err := f1.Result()
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %T: %v", err, err)
	}
	if pe.Value != "kaboom" {
		t.Fatalf("panic value=%v", pe.Value)
	}
	if v, err := f2.Result(); err != nil || v != 7 {
		t.Fatalf("f2: v=%d err=%v", v, err)
	}
	if q.Len() != 0 {
		t.Fatalf("bookkeeping left behind after panic")
	}
}

// Wait returns on ctx, but the op still runs and later ops still wait for it.
func TestWaitHonoursContext(t *testing.T) {
	q := New[string]()
	release := make(chan struct{})
	var ran sync.WaitGroup
	ran.Add(1)

	f1 := Submit(q, "k", func() (int, error) {
		<-release
		ran.Done()
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f1.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err=%v, want deadline exceeded", err)
	}

	f2 := Submit(q, "k", func() (int, error) { return 2, nil })
	select {
	case <-f2.Done():
		t.Fatalf("second op ran before the first")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	ran.Wait()
	if v, err := f2.Result(); err != nil || v != 2 {
		t.Fatalf("f2: v=%d err=%v", v, err)
	}
	if v, err := f1.Result(); err != nil || v != 1 {
		t.Fatalf("f1: v=%d err=%v", v, err)
	}
}

func TestDo(t *testing.T) {
	q := New[string]()
	v, err := Do(context.Background(), q, "k", func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("Do: v=%q err=%v", v, err)
	}
}

func TestResolved(t *testing.T) {
	boom := errors.New("boom")
	f := Resolved(0, boom)
	select {
	case <-f.Done():
	default:
		t.Fatalf("Resolved future not settled")
	}
	if _, err := f.Result(); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

// Many goroutines hammering a handful of keys; each key's counter must end up
// exactly at the number of increments (read-modify-write without a lock).
func TestConcurrentSubmitters(t *testing.T) {
	q := New[int]()
	counters := make([]int, 4)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				k := i % len(counters)
				_, _ = Submit(q, k, func() (struct{}, error) {
					v := counters[k]
					counters[k] = v + 1
					return struct{}{}, nil
				}).Result()
			}
		}()
	}
	wg.Wait()

	for k, v := range counters {
		if v != 16*100/len(counters) {
			t.Fatalf("counter %d=%d, want %d", k, v, 16*100/len(counters))
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len=%d after drain", q.Len())
	}
}
