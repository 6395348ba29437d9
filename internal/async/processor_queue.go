package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("async: queue is shutting down")

// Importer imports one file from disk; the batch orchestrator provides it.
type Importer interface {
	ImportPath(ctx context.Context, path string) error
}

type ImporterFunc func(ctx context.Context, path string) error

func (f ImporterFunc) ImportPath(ctx context.Context, path string) error { return f(ctx, path) }

// ProcessorQueue runs imports on a fixed pool of workers.
type ProcessorQueue struct {
	imp     Importer
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(imp Importer, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		imp:     imp,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				for job := range q.ch {
					q.run(workerID, job)
				}
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(common.WithActorID(context.Background(), job.Actor), q.timeout)
	defer cancel()
	start := time.Now()
	if err := q.imp.ImportPath(ctx, job.Path); err != nil {
		q.logger.Warn("async.import.failed", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID, "error", err)
		return
	}
	q.logger.Info("async.import.ok",
		"worker_id", workerID,
		"path", job.Path,
		"trace_id", job.TraceID,
		"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}
	q.logger.Warn("async.queue.full", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("async.queue.drained")
	}
}
