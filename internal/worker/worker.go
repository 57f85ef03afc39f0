package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool runs fire-and-forget tasks outside the request path and waits for
// them on shutdown
type Pool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewPool creates a new worker pool
func NewPool(logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Submit runs task in its own goroutine with the pool context
func (p *Pool) Submit(name string, task func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.recover(name)
		task(p.ctx)
	}()
}

// SubmitWithTimeout is Submit with a per-task deadline
func (p *Pool) SubmitWithTimeout(name string, timeout time.Duration, task func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.recover(name)

		ctx, cancel := context.WithTimeout(p.ctx, timeout)
		defer cancel()

		start := time.Now()
		task(ctx)
		p.logger.Debug("✅ [Worker] Task finished", "task", name, "duration", time.Since(start))
	}()
}

func (p *Pool) recover(name string) {
	if r := recover(); r != nil {
		p.logger.Error("❌ [Worker] Task panicked", "task", name, "panic", r)
	}
}

// Context returns the pool's context
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Shutdown waits up to timeout for in-flight tasks and cancels the pool
// context only if they have not finished by then. It reports whether every
// task finished in time.
func (p *Pool) Shutdown(timeout time.Duration) bool {
	p.logger.Info("🛑 [Worker] Initiating graceful shutdown...")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("✅ [Worker] All background tasks completed")
		return true
	case <-time.After(timeout):
		p.cancel()
		p.logger.Warn("⚠️ [Worker] Shutdown timeout exceeded, cancelling remaining tasks",
			"timeout", timeout,
		)
		return false
	}
}
