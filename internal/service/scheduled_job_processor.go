package service

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"github.com/wri/terramatch-workflow/pkg/metrics"
	"go.uber.org/zap"
)

const restoreTimeout = 30 * time.Second

// ScheduledJobProcessor consumes the messages pushed by the dispatcher.
type ScheduledJobProcessor struct {
	store     store.Store
	queue     WorkQueue
	generator ReportGenerator
}

var _ jobs.Processor = (*ScheduledJobProcessor)(nil)

func NewScheduledJobProcessor(s store.Store, queue WorkQueue, generator ReportGenerator) *ScheduledJobProcessor {
	return &ScheduledJobProcessor{store: s, queue: queue, generator: generator}
}

// Process handles one scheduled job message. When a known job fails, the scheduled job is restored
// so the next dispatcher pass claims it again.
func (p *ScheduledJobProcessor) Process(ctx context.Context, name string, msg jobs.ScheduledJobMessage) error {
	logger := zap.S().Named("scheduled_job_processor").With("id", msg.ID, "type", name)

	var err error
	switch name {
	case model.ScheduledJobTypeTaskDue:
		err = p.processTaskDue(ctx, msg.TaskDefinition)
	case model.ScheduledJobTypeReportReminder:
		err = p.processReminder(ctx, msg.TaskDefinition, func(ids []uint) river.JobArgs {
			return jobs.TerrafundReportReminderArgs{ProjectIDs: ids}
		})
	case model.ScheduledJobTypeSiteAndNurseryReminder:
		err = p.processReminder(ctx, msg.TaskDefinition, func(ids []uint) river.JobArgs {
			return jobs.TerrafundSiteAndNurseryReminderArgs{ProjectIDs: ids}
		})
	default:
		logger.Error("unsupported scheduled job")
		metrics.IncreaseScheduledJobsProcessedMetric(name, metrics.ResultSkipped)
		return nil
	}

	if err != nil {
		logger.Errorw("failed to process scheduled job, restoring it", "error", err)
		metrics.IncreaseScheduledJobsProcessedMetric(name, metrics.ResultFailure)
		// the job context may be the cause of the failure (timeout, shutdown)
		restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()
		if rerr := p.store.ScheduledJob().Restore(restoreCtx, msg.ID); rerr != nil {
			logger.Errorw("failed to restore scheduled job", "error", rerr)
		}
		return fmt.Errorf("scheduled job %d (%s) failed: %w", msg.ID, name, err)
	}

	metrics.IncreaseScheduledJobsProcessedMetric(name, metrics.ResultSuccess)
	logger.Info("scheduled job processed")
	return nil
}

func (p *ScheduledJobProcessor) processTaskDue(ctx context.Context, def model.TaskDefinition) error {
	if def.DueAt == nil {
		return fmt.Errorf("task definition for framework %q has no due date", def.FrameworkKey)
	}

	filter := store.NewProjectQueryFilter().
		ByStatus(model.StatusApproved).
		ByFrameworkKey(def.FrameworkKey)
	projects, err := p.store.Project().List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list eligible projects: %w", err)
	}

	logger := zap.S().Named("scheduled_job_processor")
	for _, project := range projects {
		task, err := p.generator.CreateTask(ctx, project, *def.DueAt)
		if err != nil {
			return fmt.Errorf("failed to create task for project %d: %w", project.ID, err)
		}
		logger.Debugw("task created", "project_id", project.ID, "task_id", task.ID, "due_at", task.DueAt)
	}

	logger.Infow("tasks created", "framework", def.FrameworkKey, "count", len(projects))
	return nil
}

// processReminder enqueues a single reminder email for every terrafund project owning a site or a nursery.
func (p *ScheduledJobProcessor) processReminder(ctx context.Context, def model.TaskDefinition, build func([]uint) river.JobArgs) error {
	if def.FrameworkKey != model.FrameworkTerrafund {
		zap.S().Named("scheduled_job_processor").Warnw("reminders are only sent for terrafund, ignoring", "framework", def.FrameworkKey)
		return nil
	}

	filter := store.NewProjectQueryFilter().
		ByFrameworkKey(def.FrameworkKey).
		WithSitesOrNurseries()
	ids, err := p.store.Project().ListIDs(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list projects to remind: %w", err)
	}

	return p.queue.Enqueue(ctx, build(ids))
}
