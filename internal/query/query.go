package query

import (
	"context"
	"errors"
	"time"
)

// DefaultStaleAfter is how long a successful result counts as fresh.
const DefaultStaleAfter = 60 * time.Second

// ErrCancelled is the error a Query reports when an attempt's channel
// closes without delivering an outcome.
var ErrCancelled = errors.New("query cancelled")

// State is the lifecycle of a Query.
type State int

const (
	// StateIdle means no fetch has been started.
	StateIdle State = iota
	// StateLoading means an attempt is in flight.
	StateLoading
	// StateSuccess means the last attempt delivered a value.
	StateSuccess
	// StateError means the last attempt failed or was cancelled.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is what one fetch attempt delivers.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Query owns one asynchronous fetch at a time and is polled, never
// awaited. It is built for event-loop UIs: Fetch starts work on a
// goroutine, Poll is a non-blocking check each tick, and the render
// path reads State/Value/Err.
//
// A Query has a single owner. Sharing one across goroutines requires
// external locking.
type Query[T any] struct {
	start func(ctx context.Context) <-chan Outcome[T]

	state      State
	value      T
	err        error
	fetchedAt  time.Time
	staleAfter time.Duration
	now        func() time.Time

	ch     <-chan Outcome[T]
	cancel context.CancelFunc
}

// Option configures a Query.
type Option[T any] func(*Query[T])

// WithStaleAfter sets how long a success counts as fresh for IsStale.
func WithStaleAfter[T any](d time.Duration) Option[T] {
	return func(q *Query[T]) { q.staleAfter = d }
}

// WithClock overrides the time source, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(q *Query[T]) { q.now = now }
}

// New creates an idle Query. start is invoked once per attempt: it
// begins the work and returns the channel its outcome will arrive on.
// Most callers build start with [Run].
func New[T any](start func(ctx context.Context) <-chan Outcome[T], opts ...Option[T]) *Query[T] {
	q := &Query[T]{
		start:      start,
		state:      StateIdle,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Run adapts a plain fetch function into an attempt starter for [New].
// Each attempt runs fetch on its own goroutine and delivers exactly one
// outcome on a buffered channel, so an abandoned attempt finishes and
// gets collected without anyone receiving.
func Run[T any](fetch func(ctx context.Context) (T, error)) func(ctx context.Context) <-chan Outcome[T] {
	return func(ctx context.Context) <-chan Outcome[T] {
		ch := make(chan Outcome[T], 1)
		go func() {
			defer close(ch)
			v, err := fetch(ctx)
			ch <- Outcome[T]{Value: v, Err: err}
		}()
		return ch
	}
}

// Fetch starts an attempt unless one is already loading. Safe to call
// on every render or key repeat.
func (q *Query[T]) Fetch() {
	if q.state == StateLoading {
		return
	}
	q.startAttempt()
}

// Refetch starts a fresh attempt unconditionally. Any in-flight
// attempt's context is cancelled and its channel abandoned, so a late
// result from it is never observed.
func (q *Query[T]) Refetch() {
	q.startAttempt()
}

func (q *Query[T]) startAttempt() {
	if q.cancel != nil {
		q.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.ch = q.start(ctx)
	q.state = StateLoading
}

// Poll checks the in-flight attempt without blocking. It returns true
// exactly when the state changed: an outcome arrived, or the channel
// closed without one (reported as ErrCancelled).
func (q *Query[T]) Poll() bool {
	if q.ch == nil {
		return false
	}

	select {
	case out, ok := <-q.ch:
		q.finishAttempt()
		if !ok {
			q.state = StateError
			q.err = ErrCancelled
			return true
		}
		if out.Err != nil {
			q.state = StateError
			q.err = out.Err
			return true
		}
		q.state = StateSuccess
		q.value = out.Value
		q.err = nil
		q.fetchedAt = q.now()
		return true
	default:
		return false
	}
}

func (q *Query[T]) finishAttempt() {
	q.ch = nil
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}

// State returns the current lifecycle state.
func (q *Query[T]) State() State {
	return q.state
}

// Loading reports whether an attempt is in flight.
func (q *Query[T]) Loading() bool {
	return q.state == StateLoading
}

// Value returns the last successful value. The bool is false until the
// first success; the value survives later Fetch/Refetch calls so UIs
// can keep rendering stale data while reloading.
func (q *Query[T]) Value() (T, bool) {
	if q.fetchedAt.IsZero() {
		var zero T
		return zero, false
	}
	return q.value, true
}

// Err returns the last attempt's error, nil outside StateError.
func (q *Query[T]) Err() error {
	if q.state != StateError {
		return nil
	}
	return q.err
}

// FetchedAt returns when the last success arrived, zero before one.
func (q *Query[T]) FetchedAt() time.Time {
	return q.fetchedAt
}

// IsStale reports whether the current success is older than the stale
// window. Only a success can be stale; callers use it to decide when
// to Refetch proactively.
func (q *Query[T]) IsStale() bool {
	return q.state == StateSuccess && q.now().Sub(q.fetchedAt) > q.staleAfter
}
