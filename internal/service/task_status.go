package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thoas/go-funk"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"github.com/wri/terramatch-workflow/pkg/metrics"
	"go.uber.org/zap"
)

// TaskStatusService derives task status from the status of its reports.
type TaskStatusService struct {
	store store.Store
}

func NewTaskStatusService(s store.Store) *TaskStatusService {
	return &TaskStatusService{store: s}
}

// Rollup recomputes and persists the status of a task. A due task is left untouched.
// Concurrent rollups of the same task are last-write-wins.
func (t *TaskStatusService) Rollup(ctx context.Context, taskID uint) (model.Status, error) {
	task, err := t.store.Task().Get(ctx, taskID, store.NewTaskQueryOptions().WithReportStatuses())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", fmt.Errorf("task %d not found", taskID)
		}
		return "", err
	}

	if task.Status == model.StatusDue {
		return task.Status, nil
	}

	states := task.ReportStates()
	status, ok := rollupStatus(states)
	if !ok {
		return "", NewErrInconsistentTaskState(task.ID, distinctStatuses(states))
	}

	if status != task.Status {
		if err := t.store.Task().UpdateStatus(ctx, task.ID, status); err != nil {
			return "", fmt.Errorf("failed to update task %d status: %w", task.ID, err)
		}
		zap.S().Named("task_status").Infow("task status updated", "task_id", task.ID, "from", task.Status, "to", status)
	}
	metrics.IncreaseTaskRollupsMetric(status.String())

	return status, nil
}

// ReconcileDueTasks repairs the status of every task still marked due whose reports have all been submitted.
// Tasks with unsubmitted reports are skipped. It returns the number of tasks moved to each status.
func (t *TaskStatusService) ReconcileDueTasks(ctx context.Context) (map[model.Status]int, error) {
	logger := zap.S().Named("task_status")

	tasks, err := t.store.Task().List(ctx,
		store.NewTaskQueryFilter().ByStatus(model.StatusDue),
		store.NewTaskQueryOptions().WithReportStatuses(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}

	byStatus := make(map[model.Status][]uint)
	for _, task := range tasks {
		status, ok := rollupStatus(task.ReportStates())
		if !ok {
			continue
		}
		byStatus[status] = append(byStatus[status], task.ID)
	}

	updated := make(map[model.Status]int, len(byStatus))
	err = withTransaction(ctx, t.store, func(ctx context.Context) error {
		for status, ids := range byStatus {
			n, err := t.store.Task().BulkUpdateStatus(ctx, ids, status)
			if err != nil {
				return fmt.Errorf("failed to update tasks to %s: %w", status, err)
			}
			updated[status] = int(n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("due tasks reconciled", "scanned", len(tasks), "updated", updated)
	return updated, nil
}

// rollupStatus applies, in priority order: all approved, unsubmitted (ok=false),
// needs more information, awaiting approval.
func rollupStatus(states []model.ReportState) (model.Status, bool) {
	statuses := distinctStatuses(states)

	if len(statuses) == 1 && statuses[0] == model.StatusApproved {
		return model.StatusApproved, true
	}

	if funk.Contains(statuses, model.StatusDue) || funk.Contains(statuses, model.StatusStarted) {
		return "", false
	}

	for _, s := range states {
		if needsMoreInformation(s) {
			return model.StatusNeedsMoreInformation, true
		}
	}

	return model.StatusAwaitingApproval, true
}

func needsMoreInformation(s model.ReportState) bool {
	updateRequest := model.Status("")
	if s.UpdateRequestStatus != nil {
		updateRequest = *s.UpdateRequestStatus
	}
	if s.Status == model.StatusNeedsMoreInformation && updateRequest != model.StatusAwaitingApproval {
		return true
	}
	return updateRequest == model.StatusNeedsMoreInformation
}

func distinctStatuses(states []model.ReportState) []model.Status {
	statuses := make([]model.Status, 0, len(states))
	for _, s := range states {
		statuses = append(statuses, s.Status)
	}
	return funk.Uniq(statuses).([]model.Status)
}
