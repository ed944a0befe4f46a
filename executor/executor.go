/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raulk/clock"

	"github.com/acronis/phrase-migrate/internal/ratelimit"
	"github.com/acronis/phrase-migrate/log"
)

// Task is a unit of work. The context is the submission context,
// bounded by Config.WorkTimeout if it is set.
type Task func(ctx context.Context) (interface{}, error)

// Opts represents options for the Executor.
type Opts struct {
	Logger           log.FieldLogger
	MetricsCollector MetricsCollector

	// Clock drives the poll timer and the rolling log limiter. Defaults to the wall clock.
	Clock clock.Clock

	// Limiter replaces the window limiter built from Config.Algorithm.
	Limiter ratelimit.Limiter

	// LimiterKey is passed to the limiter, so several executors may share a keyed limiter.
	LimiterKey string
}

type queuedTask struct {
	ctx        context.Context
	run        Task
	settle     func(val interface{}, err error)
	seq        uint64
	enqueuedAt time.Time
}

// Executor admits submitted tasks in FIFO order while both the concurrency cap
// and the window limiter allow it, and runs each admitted task in its own goroutine.
type Executor struct {
	maxConcurrent int
	pollInterval  time.Duration
	workTimeout   time.Duration
	limiter       ratelimit.Limiter
	limiterKey    string
	clock         clock.Clock
	logger        log.FieldLogger
	metrics       MetricsCollector

	mu         sync.Mutex
	queue      []*queuedTask
	active     int
	processing bool // the admission goroutine is running
	busy       bool // idle is open
	idle       chan struct{}
	seq        uint64

	wake     chan struct{}
	counters counters
}

// New creates a new Executor.
func New(cfg *Config, opts Opts) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid executor configuration: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	limiter := opts.Limiter
	if limiter == nil {
		var err error
		maxRate := ratelimit.Rate{Count: cfg.MaxRequestsPerWindow, Duration: cfg.WindowSize}
		if limiter, err = ratelimit.NewLimiter(cfg.Algorithm, maxRate, ratelimit.Opts{Clock: opts.Clock}); err != nil {
			return nil, fmt.Errorf("new window limiter: %w", err)
		}
	}

	idle := make(chan struct{})
	close(idle)
	return &Executor{
		maxConcurrent: cfg.MaxConcurrent,
		pollInterval:  cfg.PollInterval,
		workTimeout:   cfg.WorkTimeout,
		limiter:       limiter,
		limiterKey:    opts.LimiterKey,
		clock:         opts.Clock,
		logger:        opts.Logger,
		metrics:       opts.MetricsCollector,
		idle:          idle,
		wake:          make(chan struct{}, 1),
	}, nil
}

// Submit enqueues the task and returns its Future.
// If ctx is done before the task is admitted, the Future fails with ctx.Err()
// and neither a concurrency slot nor a window unit is consumed.
func (e *Executor) Submit(ctx context.Context, task Task) *Future[interface{}] {
	fut := newFuture[interface{}]()
	e.enqueue(ctx, task, fut.settle)
	return fut
}

// Submit enqueues fn to the executor and returns a typed Future.
func Submit[T any](e *Executor, ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	fut := newFuture[T]()
	run := func(ctx context.Context) (interface{}, error) {
		v, err := fn(ctx)
		return v, err
	}
	e.enqueue(ctx, run, func(v interface{}, err error) {
		typed, _ := v.(T)
		fut.settle(typed, err)
	})
	return fut
}

// Drain blocks until no task is queued or running, or until ctx is done.
// It does not prevent concurrent submissions, which extend the wait.
func (e *Executor) Drain(ctx context.Context) error {
	e.mu.Lock()
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the executor counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	queued, active := len(e.queue), e.active
	e.mu.Unlock()
	return Stats{
		Submitted: e.counters.submitted.Load(),
		Admitted:  e.counters.admitted.Load(),
		Succeeded: e.counters.succeeded.Load(),
		Failed:    e.counters.failed.Load(),
		Queued:    queued,
		Active:    active,
	}
}

func (e *Executor) enqueue(ctx context.Context, run Task, settle func(interface{}, error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	e.counters.submitted.Inc()

	e.mu.Lock()
	e.seq++
	e.queue = append(e.queue, &queuedTask{ctx: ctx, run: run, settle: settle, seq: e.seq, enqueuedAt: e.clock.Now()})
	e.metrics.SetQueueLength(len(e.queue))
	if !e.busy {
		e.busy = true
		e.idle = make(chan struct{})
	}
	startAdmission := !e.processing
	e.processing = true
	e.mu.Unlock()

	if startAdmission {
		go e.admit()
	}
}

// admit is the admission loop. Only one instance runs at a time, it exits when the queue is empty.
func (e *Executor) admit() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.processing = false
			e.mu.Unlock()
			return
		}
		head := e.queue[0]

		if err := head.ctx.Err(); err != nil {
			e.popLocked()
			e.counters.failed.Inc()
			head.settle(nil, err)
			e.markIdleIfDoneLocked()
			e.mu.Unlock()
			e.logger.Debug("task canceled before admission", log.Int64("seq", int64(head.seq)), log.Error(err))
			continue
		}

		if e.active >= e.maxConcurrent {
			e.mu.Unlock()
			e.wait(e.pollInterval)
			continue
		}

		allowed, retryAfter, err := e.limiter.Allow(head.ctx, e.limiterKey)
		if err != nil || !allowed {
			e.mu.Unlock()
			delay := e.pollInterval
			if err != nil {
				e.logger.Warn("window limiter failed, admission postponed", log.Error(err))
			} else if retryAfter > 0 && retryAfter < delay {
				delay = retryAfter
			}
			e.wait(delay)
			continue
		}

		e.popLocked()
		e.active++
		e.metrics.SetActive(e.active)
		e.mu.Unlock()

		e.counters.admitted.Inc()
		e.metrics.IncAdmissions()
		e.metrics.ObserveQueueWait(e.clock.Since(head.enqueuedAt))
		go e.run(head)
	}
}

// wait sleeps for d or until a running task finishes.
func (e *Executor) wait(d time.Duration) {
	timer := e.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.wake:
	}
}

func (e *Executor) run(task *queuedTask) {
	ctx := task.ctx
	if e.workTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.workTimeout)
		defer cancel()
	}

	startedAt := e.clock.Now()
	val, err := callTask(ctx, task.run)
	status := TaskStatusSucceeded
	if err != nil {
		status = TaskStatusFailed
		e.counters.failed.Inc()
		if panicErr, ok := err.(*PanicError); ok {
			e.logger.Error("task panicked", log.Int64("seq", int64(task.seq)), log.Any("panic", panicErr.Value),
				log.String("stack", string(panicErr.Stack)))
		}
	} else {
		e.counters.succeeded.Inc()
	}
	e.metrics.ObserveTaskDuration(status, e.clock.Since(startedAt))
	task.settle(val, err)

	e.mu.Lock()
	e.active--
	e.metrics.SetActive(e.active)
	e.markIdleIfDoneLocked()
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func callTask(ctx context.Context, task Task) (val interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			val, err = nil, newPanicError(p)
		}
	}()
	return task(ctx)
}

func (e *Executor) popLocked() {
	e.queue[0] = nil
	e.queue = e.queue[1:]
	if len(e.queue) == 0 {
		e.queue = nil
	}
	e.metrics.SetQueueLength(len(e.queue))
}

func (e *Executor) markIdleIfDoneLocked() {
	if e.busy && len(e.queue) == 0 && e.active == 0 {
		e.busy = false
		close(e.idle)
	}
}
