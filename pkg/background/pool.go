package background

import (
	"context"
	"sync"
	"time"

	"clinic-assistant-be/internal/pkg/logger"
)

// Pool runs fire-and-forget work (audit records, profile updates) off the
// request path. Submissions are dropped, not blocked, when the queue is
// full: background work must never add latency to a turn.
type Pool struct {
	tasks   chan func(ctx context.Context)
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	logger  logger.ILogger
	timeout time.Duration
}

func NewPool(workers, queueSize int, taskTimeout time.Duration, log logger.ILogger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if taskTimeout <= 0 {
		taskTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:   make(chan func(ctx context.Context), queueSize),
		cancel:  cancel,
		logger:  log,
		timeout: taskTimeout,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(ctx, task)
		}
	}
}

func (p *Pool) run(ctx context.Context, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("BACKGROUND", "task panicked", map[string]interface{}{
				"panic": r,
			})
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	task(taskCtx)
}

// Submit enqueues a task. Returns false when the queue is full.
func (p *Pool) Submit(task func(ctx context.Context)) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn("BACKGROUND", "task queue full, dropping task", nil)
		return false
	}
}

// Shutdown stops accepting work and waits for in-flight tasks.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
