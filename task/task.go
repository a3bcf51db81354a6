// Package task provides the deferred computation primitive used by every
// prequelize operation. A Task is a lazy, memoized unit of work: nothing
// runs until the task is driven, and it runs at most once no matter how
// many consumers observe it.
package task

import (
	"context"
	"sync"
)

// Task is a lazy, memoized computation producing a value of type T.
// Tasks compose: a task can be used as the input of another via Then,
// building a dependency chain that only executes when the final task
// is driven.
type Task[T any] struct {
	once sync.Once
	fn   func(ctx context.Context) (T, error)
	val  T
	err  error
}

// New creates a Task from the given function. The function is not called
// until the task is driven with Run or Done.
func New[T any](fn func(ctx context.Context) (T, error)) *Task[T] {
	return &Task[T]{fn: fn}
}

// Resolve creates an already-completed Task holding the given value.
func Resolve[T any](v T) *Task[T] {
	t := &Task[T]{}
	t.once.Do(func() { t.val = v })
	return t
}

// Reject creates an already-failed Task holding the given error.
func Reject[T any](err error) *Task[T] {
	t := &Task[T]{}
	t.once.Do(func() { t.err = err })
	return t
}

// Run drives the task and returns its result. The underlying function
// executes at most once; subsequent calls return the memoized result,
// ignoring the new context.
func (t *Task[T]) Run(ctx context.Context) (T, error) {
	t.once.Do(func() {
		t.val, t.err = t.fn(ctx)
		t.fn = nil
	})
	return t.val, t.err
}

// Done drives the task immediately and invokes cb exactly once with the
// outcome. It is the callback-style terminal for a task chain.
func (t *Task[T]) Done(ctx context.Context, cb func(T, error)) {
	cb(t.Run(ctx))
}

// Then composes a dependent task: when driven, it drives t first and, if t
// succeeded, feeds its value to fn. An error from t short-circuits fn.
func Then[A, B any](t *Task[A], fn func(ctx context.Context, v A) (B, error)) *Task[B] {
	return New(func(ctx context.Context) (B, error) {
		v, err := t.Run(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return fn(ctx, v)
	})
}

// All drives the given tasks in order and collects their values. The first
// error stops the collection and is returned.
func All[T any](ctx context.Context, tasks ...*Task[T]) ([]T, error) {
	out := make([]T, 0, len(tasks))
	for _, t := range tasks {
		v, err := t.Run(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
