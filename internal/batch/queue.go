package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/pipeline"
)

// Task is one document to convert.
type Task struct {
	ID          uuid.UUID
	Request     pipeline.Request
	SubmittedAt time.Time
}

// Outcome is what a worker reports for one Task.
type Outcome struct {
	Task   Task
	Result pipeline.Result
	Err    error
}

// Converter is the part of pipeline.Converter the queue needs.
type Converter interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Queue converts documents one at a time, in submission order, on a single
// background worker. Outcomes are delivered to the OnOutcome callback from
// that worker.
type Queue struct {
	conv    Converter
	logger  *slog.Logger
	timeout time.Duration
	notify  func(Outcome)

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Task, n)
		}
	}
}

// WithTaskTimeout bounds each conversion. Zero means no limit beyond the
// context passed to Start.
func WithTaskTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func OnOutcome(fn func(Outcome)) Option {
	return func(q *Queue) { q.notify = fn }
}

func NewQueue(conv Converter, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		conv:   conv,
		logger: logger.With("component", "batch_queue"),
		ch:     make(chan Task, 256),
		notify: func(Outcome) {},
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Start launches the worker. Cancelling ctx aborts the in-flight conversion;
// queued tasks still drain and report the cancellation error.
func (q *Queue) Start(ctx context.Context) {
	q.once.Do(func() {
		q.wg.Add(1)
		go q.work(ctx)
	})
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	logger := common.LoggerWithRequest(ctx, q.logger)
	logger.Debug("worker started")

	for task := range q.ch {
		tctx := ctx
		cancel := func() {}
		if q.timeout > 0 {
			tctx, cancel = context.WithTimeout(ctx, q.timeout)
		}
		res, err := q.conv.Run(tctx, task.Request)
		cancel()

		if err != nil {
			logger.Error("conversion failed", "task_id", task.ID, "source", task.Request.Source, "error", err)
		} else {
			logger.Info("converted", "task_id", task.ID, "source", task.Request.Source, "pages", len(res.Pages))
		}
		q.notify(Outcome{Task: task, Result: res, Err: err})
	}
	logger.Debug("worker stopped")
}

// Enqueue submits req and returns the task id. It blocks while the queue is
// full and fails once Shutdown has begun.
func (q *Queue) Enqueue(ctx context.Context, req pipeline.Request) (uuid.UUID, error) {
	task := Task{ID: uuid.New(), Request: req, SubmittedAt: time.Now()}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return uuid.Nil, common.InvalidArgumentError("queue is shutting down")
	}
	select {
	case q.ch <- task:
	default:
		q.logger.Warn("queue full, applying backpressure", "source", req.Source)
		select {
		case q.ch <- task:
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
	return task.ID, nil
}

// Shutdown stops accepting tasks and waits for the worker to drain, or for
// ctx to end.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
		return ctx.Err()
	case <-done:
		q.logger.Debug("queue drained")
		return nil
	}
}
