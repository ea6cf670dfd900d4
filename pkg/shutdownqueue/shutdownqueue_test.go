package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// resetQueue clears package state between tests sharing the global queue.
func resetQueue(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		mu.Lock()
		tasks = nil
		closed = false
		mu.Unlock()
	})
}

//nolint:paralleltest
func TestLIFOOrder(t *testing.T) {
	resetQueue(t)

	var order []int

	for i := 1; i <= 3; i++ {
		n := i

		Add(func(ctx context.Context) error {
			order = append(order, n)

			return nil
		})
	}

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	want := []int{3, 2, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", order, want)
		}
	}
}

//nolint:paralleltest
func TestPanicRecoveredAndDrainContinues(t *testing.T) {
	resetQueue(t)

	var ranAfter atomic.Bool

	Add(func(ctx context.Context) error {
		ranAfter.Store(true)

		return nil
	})
	Add(func(ctx context.Context) error { panic("boom") })

	err := Shutdown(t.Context())
	if err == nil || !strings.Contains(err.Error(), "panic in shutdown task: boom") {
		t.Fatalf("expected panic error, got %v", err)
	}

	if !ranAfter.Load() {
		t.Fatal("tasks after the panicking one should still run")
	}
}

//nolint:paralleltest
func TestErrorsJoined(t *testing.T) {
	resetQueue(t)

	err1 := errors.New("alpha")
	err2 := errors.New("beta")

	Add(func(ctx context.Context) error { return err1 })
	Add(func(ctx context.Context) error { return err2 })

	err := Shutdown(t.Context())
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Fatalf("expected joined error with both, got %v", err)
	}
}

//nolint:paralleltest
func TestShutdownIdempotent(t *testing.T) {
	resetQueue(t)

	var count atomic.Int32

	Add(func(ctx context.Context) error {
		count.Add(1)

		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := Shutdown(ctx); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}

	if err := Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("task ran %d times, want 1", got)
	}
}

//nolint:paralleltest
func TestAddAfterShutdownIgnored(t *testing.T) {
	resetQueue(t)

	if err := Shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	var ran bool

	Add(func(ctx context.Context) error {
		ran = true

		return nil
	})

	_ = Shutdown(t.Context())

	if ran {
		t.Fatal("task added after shutdown must not run")
	}
}

//nolint:paralleltest
func TestCancelStopsDrain(t *testing.T) {
	resetQueue(t)

	var ranFirst atomic.Bool

	Add(func(ctx context.Context) error {
		ranFirst.Store(true)

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Shutdown(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if ranFirst.Load() {
		t.Fatal("no task should run after cancellation")
	}
}
