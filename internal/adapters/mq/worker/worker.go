// Package worker runs queued tasks on a fixed set of goroutines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vigilance/vanguard/internal/adapters/mq/queue"
	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// Default worker configuration constants.
const (
	DefaultWorkers      = 8
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// TaskQueue is the queue a Pool feeds and drains.
type TaskQueue interface {
	Queue
	Enqueue(ctx context.Context, t queue.Task) bool
	Close() error
}

// Worker runs tasks read off a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.run(ctx, t)
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) run(ctx context.Context, t queue.Task) {
	start := time.Now()
	defer func() {
		metrics.RecordTaskLatency(float64(time.Since(start).Milliseconds()))
		if r := recover(); r != nil {
			w.logger.Error(ctx, "task panicked",
				logger.String("task_id", t.ID),
				logger.Any("panic", r),
			)
		}
	}()
	if t.Run == nil {
		return
	}
	t.Run(ctx)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   TaskQueue

	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates a new worker pool. A count below one selects DefaultWorkers.
func NewPool(workerCount int, q TaskQueue, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = DefaultWorkers
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(pool)
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(pool.logger),
		)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateExecutorWorkers(len(p.workers))
}

// Shutdown closes the queue and waits for workers to drain it.
// Workers still busy when ctx ends are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}
	if timedOut {
		for _, w := range p.workers {
			select {
			case <-w.shutdown:
			default:
				close(w.shutdown)
			}
		}
	}
	metrics.UpdateExecutorWorkers(0)
	if timedOut {
		return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
