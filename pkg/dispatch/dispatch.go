// Package dispatch runs fire-and-forget side effects on a bounded pool of
// workers. A full queue either runs the task on the caller's goroutine or
// drops it, depending on the overflow policy.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"roomkeeper/pkg/logger"
)

var (
	ErrQueueFull = errors.New("dispatch queue is full")
	ErrStopped   = errors.New("dispatcher is stopped")
)

type Overflow string

const (
	CallerRuns Overflow = "caller_runs"
	Reject     Overflow = "reject"
)

// Task receives a context detached from the submitter's cancellation and
// bounded by the configured task timeout.
type Task func(ctx context.Context) error

type Config struct {
	Workers     int
	QueueSize   int
	Overflow    Overflow
	TaskTimeout time.Duration
}

type Stats struct {
	Submitted  int64
	Completed  int64
	Failed     int64
	Rejected   int64
	CallerRuns int64
}

type job struct {
	ctx  context.Context
	name string
	task Task
}

type Dispatcher struct {
	cfg   Config
	log   *logger.Logger
	queue chan job

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	submitted  atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	rejected   atomic.Int64
	callerRuns atomic.Int64
}

func New(cfg Config, log *logger.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.Overflow == "" {
		cfg.Overflow = CallerRuns
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		cfg:   cfg,
		log:   log.Component("dispatch"),
		queue: make(chan job, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go d.worker()
	}

	return d
}

// Submit enqueues task without blocking. Values carried by ctx (trace spans,
// request ids) are kept; its cancellation is not.
func (d *Dispatcher) Submit(ctx context.Context, name string, task Task) error {
	j := job{ctx: context.WithoutCancel(ctx), name: name, task: task}

	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		d.rejected.Add(1)
		return ErrStopped
	}
	d.submitted.Add(1)
	select {
	case d.queue <- j:
		d.mu.RUnlock()
		return nil
	default:
	}
	d.mu.RUnlock()

	if d.cfg.Overflow == Reject {
		d.rejected.Add(1)
		d.log.Warn("Dispatch queue full, task rejected", "task", name)
		return ErrQueueFull
	}

	d.callerRuns.Add(1)
	d.run(j)
	return nil
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.cfg.TaskTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			d.failed.Add(1)
			d.log.Error("Dispatched task panicked", "task", j.name, "panic", rec)
		}
	}()

	if err := j.task(ctx); err != nil {
		d.failed.Add(1)
		d.log.Warn("Dispatched task failed", "task", j.name, "error", err)
		return
	}
	d.completed.Add(1)
}

// Stop refuses new tasks and waits for queued ones to finish or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted:  d.submitted.Load(),
		Completed:  d.completed.Load(),
		Failed:     d.failed.Load(),
		Rejected:   d.rejected.Load(),
		CallerRuns: d.callerRuns.Load(),
	}
}
