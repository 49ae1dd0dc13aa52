package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is periodic maintenance work.
type Task func(context.Context) error

// Periodic runs a task on a fixed interval until stopped.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Every builds a Periodic that runs task each interval.
func Every(name string, interval time.Duration, task Task, logger *zap.Logger) *Periodic {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Periodic{name: name, interval: interval, task: task, logger: logger.With(zap.String("task", name))}
}

// Start launches the ticker loop. Subsequent calls are no-ops.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop halts the loop and waits for a running tick to return.
func (p *Periodic) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce executes the task synchronously.
func (p *Periodic) RunOnce(ctx context.Context) {
	started := time.Now()
	if err := p.task(ctx); err != nil {
		p.logger.Warn("periodic task failed", zap.Error(err))
		return
	}
	p.logger.Debug("periodic task finished", zap.Duration("took", time.Since(started)))
}

func (p *Periodic) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}
