package query

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"fleetdash/internal/api"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) schedule(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the only pending timer.
func (c *fakeClock) fire(t *testing.T) time.Duration {
	t.Helper()
	p := c.pending()
	if len(p) != 1 {
		t.Fatalf("pending timers = %d, want 1", len(p))
	}
	p[0].stopped = true
	p[0].f()
	return p[0].d
}

type harness struct {
	clock   *fakeClock
	states  chan State[int, string]
	results chan error
}

func newHarness(t *testing.T, debounce func(prev, next int) time.Duration) (*harness, *Query[int, string]) {
	t.Helper()
	h := &harness{
		clock:   &fakeClock{},
		states:  make(chan State[int, string], 64),
		results: make(chan error, 64),
	}
	fetch := func(ctx context.Context, p int) (string, error) {
		select {
		case err := <-h.results:
			if ctx.Err() != nil {
				// superseded; hand the result to the live fetch
				h.results <- err
				return "", ctx.Err()
			}
			if err != nil {
				return "", err
			}
			return "page", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	q := New(1, fetch, Options[int, string]{
		Debounce: debounce,
		OnChange: func(s State[int, string]) { h.states <- s },
		Schedule: h.clock.schedule,
	})
	t.Cleanup(q.Close)
	return h, q
}

func (h *harness) waitFor(t *testing.T, phase Phase) State[int, string] {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-h.states:
			if s.Phase == phase {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", phase)
		}
	}
}

var tooMany = &api.Error{Method: "GET", Path: "/auth/users", Status: http.StatusTooManyRequests}

func TestBackoff(t *testing.T) {
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for n, w := range want {
		if got := Backoff(n); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", n, got, w)
		}
	}
	if Backoff(60) != 10*time.Second {
		t.Error("large n must cap at 10s")
	}
}

func TestRateLimitSchedulesOneRetry(t *testing.T) {
	h, q := newHarness(t, nil)

	h.results <- tooMany
	q.Refresh()
	s := h.waitFor(t, RateLimited)
	if !s.RateLimited || s.RetryCount != 0 {
		t.Fatalf("state = %+v", s)
	}
	if p := h.clock.pending(); len(p) != 1 || p[0].d != time.Second {
		t.Fatalf("pending = %+v", p)
	}

	if q.Refresh() {
		t.Fatal("refresh must be ignored while rate limited")
	}

	h.results <- tooMany
	if d := h.clock.fire(t); d != time.Second {
		t.Fatalf("first retry after %v", d)
	}
	s = h.waitFor(t, RateLimited)
	if s.RetryCount != 1 {
		t.Fatalf("retry count = %d", s.RetryCount)
	}
	if p := h.clock.pending(); len(p) != 1 || p[0].d != 2*time.Second {
		t.Fatalf("second retry = %+v", p)
	}

	h.results <- nil
	h.clock.fire(t)
	s = h.waitFor(t, Success)
	if s.RateLimited || s.RetryCount != 0 || s.Result != "page" {
		t.Fatalf("after success = %+v", s)
	}
	if len(h.clock.pending()) != 0 {
		t.Fatal("no retry should remain after success")
	}
}

func TestDebouncedParams(t *testing.T) {
	h, q := newHarness(t, func(prev, next int) time.Duration {
		if next > 100 {
			return 500 * time.Millisecond
		}
		return 0
	})

	q.SetParams(101)
	q.SetParams(102)
	p := h.clock.pending()
	if len(p) != 1 || p[0].d != 500*time.Millisecond {
		t.Fatalf("pending = %+v", p)
	}
	if q.State().Params != 102 {
		t.Fatalf("params = %d", q.State().Params)
	}

	h.results <- nil
	h.clock.fire(t)
	if s := h.waitFor(t, Success); s.Params != 102 {
		t.Fatalf("fetched params = %d", s.Params)
	}
}

func TestNewParamsCancelInFlight(t *testing.T) {
	h, q := newHarness(t, nil)

	q.SetParams(2) // blocks in fetch until a result arrives
	h.waitFor(t, Fetching)
	q.SetParams(3)
	h.waitFor(t, Fetching)

	h.results <- nil
	s := h.waitFor(t, Success)
	if s.Params != 3 {
		t.Fatalf("params = %d", s.Params)
	}
}

func TestFailure(t *testing.T) {
	h, q := newHarness(t, nil)
	boom := errors.New("boom")
	h.results <- boom
	q.Refresh()
	s := h.waitFor(t, Failed)
	if !errors.Is(s.Err, boom) || s.RateLimited {
		t.Fatalf("state = %+v", s)
	}
	if len(h.clock.pending()) != 0 {
		t.Fatal("plain failures are not retried")
	}
}

func TestNewParamsDropPendingRetry(t *testing.T) {
	h, q := newHarness(t, nil)

	h.results <- tooMany
	q.Refresh()
	h.waitFor(t, RateLimited)
	if len(h.clock.pending()) != 1 {
		t.Fatal("expected a scheduled retry")
	}

	h.results <- nil
	q.SetParams(2)
	s := h.waitFor(t, Success)
	if s.Params != 2 || s.RateLimited {
		t.Fatalf("state = %+v", s)
	}
	if p := h.clock.pending(); len(p) != 0 {
		t.Fatalf("stale retry still pending: %+v", p)
	}
	select {
	case s := <-h.states:
		t.Fatalf("unexpected transition after success: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}
