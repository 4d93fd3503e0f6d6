// Package query provides Ref, a write-once memoized computation.
//
// A Ref starts either with a ready value or with a context that the first
// computation consumes. The outcome of that computation, success or error,
// is published once and returned to every later caller; the compute
// function never runs twice.
package query

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrContextConsumed is returned when the context was taken by a computation
// that never published a result, for example because it panicked.
var ErrContextConsumed = errors.New("query: context already consumed")

// Result is a published outcome.
type Result[T any] struct {
	Value T
	Err   error
}

// Ref is a single-assignment cell guarding one computation. The zero value
// is not usable; create refs with WithValue, WithContext or New.
type Ref[T, C any] struct {
	mu     sync.Mutex
	ctx    *C
	result atomic.Pointer[Result[T]]
}

// WithValue returns a Ref that is already computed.
func WithValue[T, C any](v T) *Ref[T, C] {
	q := &Ref[T, C]{}
	q.result.Store(&Result[T]{Value: v})
	return q
}

// WithContext returns an uncomputed Ref holding ctx for its computation.
func WithContext[T, C any](ctx C) *Ref[T, C] {
	return &Ref[T, C]{ctx: &ctx}
}

// New returns an uncomputed Ref that needs no context.
func New[T any]() *Ref[T, struct{}] {
	return WithContext[T](struct{}{})
}

// Compute is ComputeWithContext for functions that ignore the context.
func (q *Ref[T, C]) Compute(f func() (T, error)) (T, error) {
	return q.ComputeWithContext(func(C) (T, error) { return f() })
}

// ComputeWithContext returns the published outcome, running f with the
// stored context if nothing has been published yet. Concurrent callers
// block until the first one publishes and then all observe its outcome.
func (q *Ref[T, C]) ComputeWithContext(f func(C) (T, error)) (T, error) {
	if r := q.result.Load(); r != nil {
		return r.Value, r.Err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if r := q.result.Load(); r != nil {
		return r.Value, r.Err
	}
	if q.ctx == nil {
		var zero T
		return zero, ErrContextConsumed
	}
	ctx := *q.ctx
	q.ctx = nil

	v, err := f(ctx)
	q.result.Store(&Result[T]{Value: v, Err: err})
	return v, err
}

// Peek returns the published outcome without blocking. ok is false until
// a computation has finished.
func (q *Ref[T, C]) Peek() (r Result[T], ok bool) {
	p := q.result.Load()
	if p == nil {
		return Result[T]{}, false
	}
	return *p, true
}
