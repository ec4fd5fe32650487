package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/pkg/metrics"
	"go.uber.org/zap"
)

type ScheduledJobDispatcher struct {
	store store.Store
	queue WorkQueue
	now   func() time.Time
}

func NewScheduledJobDispatcher(s store.Store, queue WorkQueue) *ScheduledJobDispatcher {
	return &ScheduledJobDispatcher{
		store: s,
		queue: queue,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used to decide which jobs are due.
func (d *ScheduledJobDispatcher) WithClock(now func() time.Time) *ScheduledJobDispatcher {
	d.now = now
	return d
}

// Dispatch claims every due scheduled job, removes it and pushes it onto the work queue.
// The pass is all-or-nothing: any failure rolls back every removal.
// The enqueue happens before commit, so a crash in between re-delivers the job on the next pass.
func (d *ScheduledJobDispatcher) Dispatch(ctx context.Context) (int, error) {
	logger := zap.S().Named("scheduled_job_dispatcher")

	ctx, err := d.store.NewTransactionContext(ctx)
	if err != nil {
		return 0, err
	}

	dispatched, err := d.dispatch(ctx)
	if err != nil {
		if _, rerr := store.Rollback(ctx); rerr != nil {
			logger.Errorw("failed to rollback dispatch transaction", "error", rerr)
		}
		return 0, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit dispatch transaction: %w", err)
	}

	if len(dispatched) > 0 {
		logger.Infow("scheduled jobs dispatched", "count", len(dispatched))
	}
	for _, jobType := range dispatched {
		metrics.IncreaseScheduledJobsDispatchedMetric(jobType)
	}

	return len(dispatched), nil
}

func (d *ScheduledJobDispatcher) dispatch(ctx context.Context) ([]string, error) {
	logger := zap.S().Named("scheduled_job_dispatcher")

	due, err := d.store.ScheduledJob().FindDue(ctx, d.now())
	if err != nil {
		return nil, fmt.Errorf("failed to find due scheduled jobs: %w", err)
	}

	dispatched := make([]string, 0, len(due))
	for _, job := range due {
		if err := d.store.ScheduledJob().Remove(ctx, job.ID); err != nil {
			return nil, fmt.Errorf("failed to remove scheduled job %d: %w", job.ID, err)
		}

		args, ok := jobs.ArgsForScheduledJob(job)
		if !ok {
			logger.Errorw("unsupported scheduled job type, dropping job", "id", job.ID, "type", job.Type)
			continue
		}

		if err := d.queue.Enqueue(ctx, args); err != nil {
			return nil, fmt.Errorf("failed to enqueue scheduled job %d: %w", job.ID, err)
		}
		logger.Debugw("scheduled job enqueued", "id", job.ID, "type", job.Type)
		dispatched = append(dispatched, job.Type)
	}

	return dispatched, nil
}
