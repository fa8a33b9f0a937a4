package gridcore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheSetDataVisibleBeforeFetchResolves(t *testing.T) {
	// Async scheduler: completions run on their own goroutine.
	c := NewCache(func(f func()) { f() })

	started := make(chan struct{})
	release := make(chan struct{})
	c.Fetch("k", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "stale fetch result", nil
	})
	<-started

	prev := c.SetData("k", func(any) any { return "optimistic" })
	if prev != nil {
		t.Errorf("previous data = %v, want nil", prev)
	}
	if got := c.Lookup("k"); got.Data != "optimistic" {
		t.Fatalf("data after SetData = %v, want optimistic", got.Data)
	}

	// The superseded fetch must not clobber the optimistic write.
	close(release)
	deadline := time.After(200 * time.Millisecond)
	for {
		if got := c.Lookup("k"); got.Data != "optimistic" {
			t.Fatalf("stale response clobbered optimistic write: %v", got.Data)
		}
		select {
		case <-deadline:
			return
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestCacheFetchInFlightGuard(t *testing.T) {
	c := NewCache(func(f func()) { f() })

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return 1, nil
	}
	done := make(chan struct{})
	c.OnChange(func(string) { close(done) })

	c.Fetch("k", fn)
	<-started
	c.Fetch("k", fn) // ignored while the first is in flight
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
}

func TestCacheStates(t *testing.T) {
	c := NewCache(nil)

	if got := c.Lookup("k").State; got != StateIdle {
		t.Errorf("fresh state = %v, want StateIdle", got)
	}

	c.Fetch("k", func(ctx context.Context) (any, error) { return 42, nil })
	res := c.Lookup("k")
	if res.State != StateReady || res.Data != 42 {
		t.Errorf("after fetch: state=%v data=%v", res.State, res.Data)
	}

	c.Invalidate("k")
	res = c.Lookup("k")
	if !res.Stale || res.Data != 42 {
		t.Errorf("after invalidate: stale=%v data=%v, want stale with data kept", res.Stale, res.Data)
	}

	c.Fetch("err", func(ctx context.Context) (any, error) { return nil, errors.New("boom") })
	if got := c.Lookup("err").State; got != StateError {
		t.Errorf("after failed fetch: state = %v, want StateError", got)
	}
}

func TestMutateLifecycle(t *testing.T) {
	c := NewCache(nil)

	t.Run("success path", func(t *testing.T) {
		var order []string
		c.Mutate(context.Background(), func(ctx context.Context) error { return nil }, MutationHooks{
			BeforeSend: func() func() {
				order = append(order, "apply")
				return func() { order = append(order, "rollback") }
			},
			OnSuccess: func() { order = append(order, "success") },
			OnSettled: func() { order = append(order, "settled") },
		})
		want := []string{"apply", "success", "settled"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	})

	t.Run("error path rolls back", func(t *testing.T) {
		var order []string
		var gotErr error
		c.Mutate(context.Background(), func(ctx context.Context) error { return errors.New("boom") }, MutationHooks{
			BeforeSend: func() func() {
				order = append(order, "apply")
				return func() { order = append(order, "rollback") }
			},
			OnError:   func(err error) { gotErr = err; order = append(order, "error") },
			OnSettled: func() { order = append(order, "settled") },
		})
		want := []string{"apply", "rollback", "error", "settled"}
		for i := range want {
			if i >= len(order) || order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
		if gotErr == nil {
			t.Error("OnError not called with the failure")
		}
	})
}
