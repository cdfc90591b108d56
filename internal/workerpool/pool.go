package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Defaults mirror the Java source's ThreadPoolExecutor(10, 50, 60, TimeUnit.SECONDS,
// new LinkedBlockingQueue<>(100), CallerRunsPolicy) sizing (spec §5, "Worker pool
// sizing").
const (
	DefaultCoreSize  = 10
	DefaultMaxSize   = 50
	DefaultQueueSize = 100
	DefaultKeepAlive = 60 * time.Second
)

// Pool is a bounded goroutine pool. Core workers stay alive indefinitely
// waiting for work; workers spawned beyond the core exit after sitting idle
// for longer than keepAlive, shrinking the pool back towards coreSize.
// Submit never blocks: once the queue is full and the pool is already at
// maxSize, the submitting goroutine runs the task itself (caller-runs).
type Pool struct {
	coreSize  int
	maxSize   int
	keepAlive time.Duration
	tasks     chan func()
	logger    *slog.Logger

	mu          sync.Mutex
	workerCount int
	stopped     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup

	callerRuns int64
	queued     int64
}

// New creates a Pool. queueSize is the capacity of the bounded task queue.
func New(coreSize, maxSize, queueSize int, keepAlive time.Duration, logger *slog.Logger) *Pool {
	return &Pool{
		coreSize:  coreSize,
		maxSize:   maxSize,
		keepAlive: keepAlive,
		tasks:     make(chan func(), queueSize),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Default creates a Pool sized per spec §5: core 10, max 50, queue 100,
// 60s keep-alive for non-core workers.
func Default(logger *slog.Logger) *Pool {
	return New(DefaultCoreSize, DefaultMaxSize, DefaultQueueSize, DefaultKeepAlive, logger)
}

// Submit schedules task for execution. If a core worker is free to be
// spun up it runs there; otherwise the task is queued; otherwise, if the
// pool has room to grow, a new worker runs it directly; otherwise task
// runs synchronously on the calling goroutine (caller-runs policy).
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.runCallerPolicy(task)
		return
	}
	if p.workerCount < p.coreSize {
		p.workerCount++
		p.mu.Unlock()
		p.spawnWorker(task, true)
		return
	}
	p.mu.Unlock()

	select {
	case p.tasks <- task:
		atomic.AddInt64(&p.queued, 1)
		return
	default:
	}

	p.mu.Lock()
	if p.workerCount < p.maxSize {
		p.workerCount++
		p.mu.Unlock()
		p.spawnWorker(task, false)
		return
	}
	p.mu.Unlock()

	p.runCallerPolicy(task)
}

func (p *Pool) runCallerPolicy(task func()) {
	atomic.AddInt64(&p.callerRuns, 1)
	if p.logger != nil {
		p.logger.Warn("worker pool saturated, running task on caller goroutine")
	}
	runTask(task, p.logger)
}

func (p *Pool) spawnWorker(firstTask func(), core bool) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			p.mu.Lock()
			p.workerCount--
			p.mu.Unlock()
		}()

		current := firstTask
		for {
			if current != nil {
				runTask(current, p.logger)
				current = nil
				continue
			}

			if core {
				select {
				case t := <-p.tasks:
					current = t
				case <-p.stopCh:
					return
				}
				continue
			}

			timer := time.NewTimer(p.keepAlive)
			select {
			case t := <-p.tasks:
				timer.Stop()
				current = t
			case <-timer.C:
				return
			case <-p.stopCh:
				timer.Stop()
				return
			}
		}
	}()
}

func runTask(task func(), logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("worker pool task panicked", slog.Any("recovered", r))
		}
	}()
	task()
}

// ActiveWorkers reports the current number of live worker goroutines.
func (p *Pool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workerCount
}

// QueueLen reports the number of tasks currently buffered in the queue.
func (p *Pool) QueueLen() int {
	return len(p.tasks)
}

// CallerRunCount reports how many tasks have been executed synchronously
// on a submitting goroutine because the pool was saturated.
func (p *Pool) CallerRunCount() int64 {
	return atomic.LoadInt64(&p.callerRuns)
}

// Stop signals all workers to exit once idle and waits for them, bounded
// by ctx. Submit continues to accept tasks after Stop, but runs them all
// under the caller-runs policy since no worker remains to pick them up.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
