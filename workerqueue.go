package assetcoord

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrgroupWorkerQueue is the default WorkerQueue: each dispatched closure
// runs on a goroutine started through a long-lived errgroup.Group rather
// than a bare go statement, so Wait can block until all of them have
// returned. Async wraps each closure in a task that always returns nil, so
// Wait never reports an error, and a panic inside a closure is not
// recovered by the queue.
type ErrgroupWorkerQueue struct {
	mu  sync.Mutex
	grp *errgroup.Group
	ctx context.Context
}

// NewErrgroupWorkerQueue creates a queue backed by a fresh errgroup.Group.
func NewErrgroupWorkerQueue() *ErrgroupWorkerQueue {
	grp, ctx := errgroup.WithContext(context.Background())
	return &ErrgroupWorkerQueue{grp: grp, ctx: ctx}
}

// Async dispatches fn to run on a goroutine managed by the underlying
// errgroup. Safe to call from any goroutine.
func (q *ErrgroupWorkerQueue) Async(fn func()) {
	q.mu.Lock()
	grp := q.grp
	q.mu.Unlock()

	grp.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every task dispatched so far has returned. Tasks
// dispatched through Async never return an error, so the result is always
// nil. Not part of the WorkerQueue interface — a convenience for graceful
// shutdown.
func (q *ErrgroupWorkerQueue) Wait() error {
	q.mu.Lock()
	grp := q.grp
	q.mu.Unlock()
	return grp.Wait()
}
