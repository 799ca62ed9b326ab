// Package query runs one cancellable, debounced fetch at a time and backs
// off when the backend rate-limits it.
//
//	Idle -> Fetching -> Success
//	                 -> RateLimited (retry scheduled) -> Fetching
//	                 -> Failed
package query

import (
	"context"
	"sync"
	"time"

	"fleetdash/internal/api"
	"fleetdash/internal/logs"
)

type Phase int

const (
	Idle Phase = iota
	Fetching
	Success
	RateLimited
	Failed
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Success:
		return "success"
	case RateLimited:
		return "rate_limited"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is a snapshot; Params are the latest requested, Result the last
// successful answer.
type State[P, R any] struct {
	Phase       Phase
	Params      P
	Result      R
	HasResult   bool
	Err         error
	RateLimited bool
	RetryCount  int
	RetryAt     time.Time
}

type Fetcher[P, R any] func(ctx context.Context, p P) (R, error)

// Timer is the part of *time.Timer the query needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d.
type Scheduler func(d time.Duration, f func()) Timer

func realScheduler(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type Options[P, R any] struct {
	// Debounce returns how long to wait before fetching next; <= 0 fetches now.
	Debounce func(prev, next P) time.Duration
	// OnChange receives every state transition.
	OnChange func(State[P, R])
	// IsRateLimited defaults to api.IsRateLimited.
	IsRateLimited func(error) bool
	Schedule      Scheduler
	Now           func() time.Time
	Name          string
}

type Query[P, R any] struct {
	fetch Fetcher[P, R]
	opts  Options[P, R]

	mu       sync.Mutex
	st       State[P, R]
	gen      uint64
	cancel   context.CancelFunc
	debounce Timer
	retry    Timer
	closed   bool
}

func New[P, R any](initial P, fetch Fetcher[P, R], opts Options[P, R]) *Query[P, R] {
	if opts.IsRateLimited == nil {
		opts.IsRateLimited = api.IsRateLimited
	}
	if opts.Schedule == nil {
		opts.Schedule = realScheduler
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Name == "" {
		opts.Name = "query"
	}
	return &Query[P, R]{fetch: fetch, opts: opts, st: State[P, R]{Params: initial}}
}

// Backoff is the wait before retry n (0-based): min(1s * 2^n, 10s).
func Backoff(n int) time.Duration {
	const max = 10 * time.Second
	if n < 0 {
		n = 0
	}
	if n >= 4 {
		return max
	}
	d := time.Second << uint(n)
	if d > max {
		return max
	}
	return d
}

func (q *Query[P, R]) State() State[P, R] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.st
}

// SetParams records p and fetches it after the debounce delay. A newer
// call replaces a pending one.
func (q *Query[P, R]) SetParams(p P) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	prev := q.st.Params
	q.st.Params = p
	var d time.Duration
	if q.opts.Debounce != nil {
		d = q.opts.Debounce(prev, p)
	}
	if q.debounce != nil {
		q.debounce.Stop()
		q.debounce = nil
	}
	if d > 0 {
		q.debounce = q.opts.Schedule(d, func() { q.run(p) })
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	q.run(p)
}

// Refresh refetches the current params. It is ignored while rate-limited.
func (q *Query[P, R]) Refresh() bool {
	q.mu.Lock()
	if q.closed || q.st.RateLimited {
		q.mu.Unlock()
		return false
	}
	p := q.st.Params
	q.mu.Unlock()
	q.run(p)
	return true
}

// Close cancels the in-flight fetch and all timers.
func (q *Query[P, R]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.gen++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	if q.debounce != nil {
		q.debounce.Stop()
		q.debounce = nil
	}
	if q.retry != nil {
		q.retry.Stop()
		q.retry = nil
	}
}

func (q *Query[P, R]) run(p P) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.debounce = nil
	if q.retry != nil {
		q.retry.Stop()
		q.retry = nil
	}
	q.gen++
	gen := q.gen
	if q.cancel != nil {
		q.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.st.Phase = Fetching
	q.st.Err = nil
	snap := q.st
	q.mu.Unlock()

	q.notify(snap)

	go func() {
		r, err := q.fetch(ctx, p)
		q.finish(gen, r, err)
	}()
}

func (q *Query[P, R]) finish(gen uint64, r R, err error) {
	q.mu.Lock()
	if gen != q.gen || q.closed {
		q.mu.Unlock()
		return
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	log := logs.Component(q.opts.Name)

	switch {
	case err == nil:
		q.st.Phase = Success
		q.st.Result = r
		q.st.HasResult = true
		q.st.RateLimited = false
		q.st.RetryCount = 0
		q.st.RetryAt = time.Time{}
	case q.opts.IsRateLimited(err):
		d := Backoff(q.st.RetryCount)
		q.st.Phase = RateLimited
		q.st.Err = err
		q.st.RateLimited = true
		q.st.RetryAt = q.opts.Now().Add(d)
		if q.retry != nil {
			q.retry.Stop()
		}
		q.retry = q.opts.Schedule(d, q.retryNow)
		log.WithField("retry_in", d).Warn("rate limited")
	case api.IsCanceled(err):
		q.mu.Unlock()
		return
	default:
		q.st.Phase = Failed
		q.st.Err = err
		log.WithError(err).Debug("fetch failed")
	}
	snap := q.st
	q.mu.Unlock()
	q.notify(snap)
}

func (q *Query[P, R]) retryNow() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.retry = nil
	q.st.RetryCount++
	q.st.RateLimited = false
	p := q.st.Params
	q.mu.Unlock()
	q.run(p)
}

func (q *Query[P, R]) notify(st State[P, R]) {
	if q.opts.OnChange != nil {
		q.opts.OnChange(st)
	}
}
