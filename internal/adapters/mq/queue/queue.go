// Package queue holds the in-memory task queue behind the fan-out executor.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/vigilance/vanguard/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 4096
)

// Task is one unit of work for the executor.
type Task struct {
	ID       string
	Run      func(ctx context.Context)
	Enqueued time.Time
}

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task, waiting for room while the queue is full.
	// Returns false if ctx ends or the queue closes first.
	Enqueue(ctx context.Context, t Task) bool

	// Dequeue returns a channel that receives tasks as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the current number of queued tasks.
	Len() int

	// Close stops accepting tasks. Tasks already queued are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)
	metrics.UpdateExecutorQueueSize(0)
	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now()
	}
	select {
	case q.tasks <- t:
		metrics.UpdateExecutorQueueSize(len(q.tasks))
		return true
	case <-ctx.Done():
		return false
	case <-q.done:
		return false
	}
}

// Dequeue returns a channel that will receive tasks as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for t := range q.tasks {
			select {
			case out <- t:
				metrics.UpdateExecutorQueueSize(len(q.tasks))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len() int {
	return len(q.tasks)
}

// Close gracefully shuts down the queue. Blocked producers are released
// before the channel is closed.
func (q *InMemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
