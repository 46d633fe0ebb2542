package services

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/infrastructure/logger"
)

// Sweeper drives the periodic overdue scan. It is the only time-driven entry
// point into the task state machine.
type Sweeper struct {
	tasks    ports.TaskService
	interval time.Duration
	logger   *logger.Logger
}

func NewSweeper(tasks ports.TaskService, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Sweeper{tasks: tasks, interval: interval, logger: log}
}

func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			swept, err := w.tasks.SweepOverdue(ctx, now)
			if err != nil && ctx.Err() == nil {
				w.logger.Errorw("sweep_failed", "error", err)
				continue
			}
			if swept > 0 {
				w.logger.Infow("sweep_ok", "delayed", swept)
			}
		}
	}
}
