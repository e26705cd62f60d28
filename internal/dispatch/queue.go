package dispatch

import (
	"errors"
	"sync"

	"benchmgr/internal/definition"
)

// ErrQueueClosed is returned by Push after Close.
var ErrQueueClosed = errors.New("dispatch queue closed")

// Queue is the shared structure between the dispatcher and its workers. It
// supports concurrent Push, blocking Pop, and a Join barrier that releases
// once every pushed item has been marked Done.
type Queue interface {
	// Push enqueues a definition. It must not block once the queue has been
	// created with enough capacity for the batch.
	Push(def *definition.Definition) error
	// Pop blocks until an item is available. It returns false once the
	// queue is closed and empty.
	Pop() (*definition.Definition, bool)
	// Done marks one popped item as fully processed.
	Done()
	// Join blocks until every pushed item has been marked Done.
	Join()
	// Close stops accepting pushes and releases idle Pop callers once the
	// remaining items are drained.
	Close()
}

// QueueFactory builds a queue able to hold capacity items without blocking.
type QueueFactory func(capacity int) Queue

type chanQueue struct {
	items   chan *definition.Definition
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewQueue returns a channel-backed Queue with the given capacity.
func NewQueue(capacity int) Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &chanQueue{items: make(chan *definition.Definition, capacity)}
}

func (q *chanQueue) Push(def *definition.Definition) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.pending.Add(1)
	q.items <- def
	return nil
}

func (q *chanQueue) Pop() (*definition.Definition, bool) {
	def, ok := <-q.items
	return def, ok
}

func (q *chanQueue) Done() {
	q.pending.Done()
}

func (q *chanQueue) Join() {
	q.pending.Wait()
}

func (q *chanQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
}
