package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tubequery/internal/logger"
)

// SourceProcessor is the ingestion task body. The pool knows execution
// semantics only; what "processing a source" means lives behind this
// interface so the pipeline logic stays testable without threads.
type SourceProcessor interface {
	ProcessSource(ctx context.Context, task IngestSourceTask) error
}

// ProcessorFunc adapts a function to the SourceProcessor interface.
type ProcessorFunc func(ctx context.Context, task IngestSourceTask) error

func (f ProcessorFunc) ProcessSource(ctx context.Context, task IngestSourceTask) error {
	return f(ctx, task)
}

type PoolConfig struct {
	Workers       int
	QueueSize     int
	TaskTimeout   time.Duration
	ShutdownGrace time.Duration
}

// Pool is a fixed-size worker pool draining an in-memory task queue. Tasks
// are executed at most once; queued tasks are lost on shutdown or process
// restart. A failing task never takes down its worker or the pool.
type Pool struct {
	processor SourceProcessor
	cfg       PoolConfig

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	tasks   chan Task
	wg      sync.WaitGroup
}

func NewPool(processor SourceProcessor, cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 2
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 64
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}
	return &Pool{
		processor: processor,
		cfg:       cfg,
		tasks:     make(chan Task, cfg.QueueSize),
	}
}

// Start spins up the worker goroutines. Calling Start on a running pool is a
// no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		slog.Debug("pool already running")
		return
	}
	p.running = true
	p.quit = make(chan struct{})

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i, p.quit)
	}
	slog.Info("ingestion pool started", "workers", p.cfg.Workers, "queue_size", p.cfg.QueueSize)
}

// Submit enqueues a task. It returns false without enqueueing when the pool
// has been stopped or the queue is full; either way the caller owns the
// fallout (typically marking the source failed). Submit never blocks.
func (p *Pool) Submit(t Task) bool {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		slog.Error("cannot submit task: pool not running", "kind", t.taskKind())
		return false
	}
	quit := p.quit
	p.mu.Unlock()

	select {
	case p.tasks <- t:
		slog.Debug("task submitted", "kind", t.taskKind())
		return true
	case <-quit:
		return false
	default:
		slog.Error("cannot submit task: queue full", "kind", t.taskKind(), "queue_size", p.cfg.QueueSize)
		return false
	}
}

// Stop signals the workers and waits for in-flight tasks, bounded by the
// configured grace period per worker. Undelivered queued tasks are
// discarded: the queue is in-memory only.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.quit)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	grace := p.cfg.ShutdownGrace * time.Duration(p.cfg.Workers)
	select {
	case <-done:
	case <-time.After(grace):
		slog.Warn("pool shutdown grace period elapsed with workers still busy")
	}

	if discarded := len(p.tasks); discarded > 0 {
		slog.Warn("discarding queued tasks on shutdown", "count", discarded)
	}
	slog.Info("ingestion pool stopped")
}

// workerLoop takes the quit channel as a parameter so a worker that outlives
// its grace period keeps watching the generation it was spawned for, not a
// channel a later Start may have swapped in.
func (p *Pool) workerLoop(id int, quit <-chan struct{}) {
	defer p.wg.Done()
	slog.Debug("worker started", "worker", id)

	for {
		select {
		case <-quit:
			slog.Debug("worker exiting", "worker", id)
			return
		case t := <-p.tasks:
			p.run(id, t)
		}
	}
}

// run executes one task. Errors and panics are contained here: one failing
// source-processing run must never affect the pool or other in-flight tasks.
func (p *Pool) run(id int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "worker", id, "kind", t.taskKind(), "panic", r)
		}
	}()

	ctx := context.Background()
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	switch task := t.(type) {
	case IngestSourceTask:
		ctx = logger.EnsureCorrelationID(ctx, task.CorrelationID)
		if err := p.processor.ProcessSource(ctx, task); err != nil {
			slog.ErrorContext(ctx, "task failed", "worker", id, "source_id", task.SourceID, "error", err)
			return
		}
		slog.InfoContext(ctx, "task completed", "worker", id, "source_id", task.SourceID, "duration", time.Since(start))
	default:
		slog.Warn("unknown task variant, dropping", "worker", id, "kind", t.taskKind())
	}
}
