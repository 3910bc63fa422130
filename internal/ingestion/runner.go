package ingestion

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultSyncInterval = 15 * time.Minute

// Runner re-syncs traders on a fixed interval.
type Runner struct {
	syncer   *Syncer
	request  SyncRequest
	interval time.Duration
	logger   *zap.Logger

	onResult func(*SyncResult, error)
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Syncer   *Syncer
	Request  SyncRequest
	Interval time.Duration // Default: 15m
	Logger   *zap.Logger

	// OnResult is called after every sync attempt.
	OnResult func(*SyncResult, error)
}

// NewRunner creates a new periodic sync runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		syncer:   opts.Syncer,
		request:  opts.Request,
		interval: interval,
		logger:   logger,
		onResult: opts.OnResult,
	}
}

// Run syncs once immediately and then every interval.
// It blocks until context is cancelled. Failed syncs are logged, not returned.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("sync runner started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("sync runner stopping")
			return ctx.Err()
		case <-ticker.C:
			r.syncOnce(ctx)
		}
	}
}

func (r *Runner) syncOnce(ctx context.Context) {
	res, err := r.syncer.Sync(ctx, r.request)
	if err != nil && ctx.Err() == nil {
		r.logger.Error("periodic sync failed", zap.Error(err))
	}
	if r.onResult != nil {
		r.onResult(res, err)
	}
}
