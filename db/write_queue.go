package db

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueStopped is returned for writes submitted after Stop
var ErrQueueStopped = errors.New("write queue stopped")

type writeOp struct {
	execute func() error
	result  chan error
}

// WriteQueue serializes database writes through a single worker goroutine,
// matching SQLite's one-writer-at-a-time model
type WriteQueue struct {
	ops      chan writeOp
	stopping chan struct{}
	stopOnce sync.Once
}

func NewWriteQueue() *WriteQueue {
	q := &WriteQueue{
		ops:      make(chan writeOp, 100),
		stopping: make(chan struct{}),
	}
	go q.worker()
	return q
}

// worker processes operations one at a time
func (q *WriteQueue) worker() {
	for {
		select {
		case op := <-q.ops:
			op.result <- op.execute()
		case <-q.stopping:
			return
		}
	}
}

// Execute runs fn on the worker and waits for it. A nil queue runs fn inline,
// which is what repositories bound to a transaction use.
func (q *WriteQueue) Execute(ctx context.Context, fn func() error) error {
	if q == nil {
		return fn()
	}

	result := make(chan error, 1)
	select {
	case q.ops <- writeOp{execute: fn, result: result}:
	case <-q.stopping:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-q.stopping:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExecuteWithResult is Execute for writes that produce a value
func ExecuteWithResult[T any](ctx context.Context, q *WriteQueue, fn func() (T, error)) (T, error) {
	var value T
	err := q.Execute(ctx, func() error {
		var err error
		value, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// Stop terminates the worker. Pending and later writes fail with ErrQueueStopped.
func (q *WriteQueue) Stop() {
	if q == nil {
		return
	}
	q.stopOnce.Do(func() { close(q.stopping) })
}
