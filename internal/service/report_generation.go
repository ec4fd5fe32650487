package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"go.uber.org/zap"
)

// ReportGenerator materializes the reporting task of a project for a due date.
type ReportGenerator interface {
	CreateTask(ctx context.Context, project model.Project, dueAt time.Time) (*model.Task, error)
}

type ReportGenerationService struct {
	store store.Store
}

var _ ReportGenerator = (*ReportGenerationService)(nil)

func NewReportGenerationService(s store.Store) *ReportGenerationService {
	return &ReportGenerationService{store: s}
}

// CreateTask creates the task, its project report and one report per approved site and nursery.
// A task already existing for (project, dueAt) is returned untouched, so retries never duplicate it.
func (r *ReportGenerationService) CreateTask(ctx context.Context, project model.Project, dueAt time.Time) (*model.Task, error) {
	dueAt = dueAt.UTC()
	logger := zap.S().Named("report_generation").With("project_id", project.ID, "due_at", dueAt)

	existing, err := r.store.Task().GetByProjectAndDueAt(ctx, project.ID, dueAt)
	switch {
	case err == nil:
		logger.Infow("task already exists, skipping", "task_id", existing.ID)
		return existing, nil
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, err
	}

	var task *model.Task
	err = withTransaction(ctx, r.store, func(ctx context.Context) error {
		task, err = r.store.Task().Create(ctx, model.Task{
			ProjectID: project.ID,
			DueAt:     dueAt,
			Status:    model.StatusDue,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if _, err := r.store.Report().CreateProjectReport(ctx, model.ProjectReport{
			ProjectID: project.ID,
			TaskID:    &task.ID,
			Status:    model.StatusDue,
			DueAt:     &dueAt,
		}); err != nil {
			return fmt.Errorf("failed to create project report: %w", err)
		}

		sites, err := r.store.Site().ListByProject(ctx, project.ID, model.StatusApproved)
		if err != nil {
			return err
		}
		for _, site := range sites {
			if _, err := r.store.Report().CreateSiteReport(ctx, model.SiteReport{
				SiteID: site.ID,
				TaskID: &task.ID,
				Status: model.StatusDue,
				DueAt:  &dueAt,
			}); err != nil {
				return fmt.Errorf("failed to create site report for site %d: %w", site.ID, err)
			}
		}

		nurseries, err := r.store.Nursery().ListByProject(ctx, project.ID, model.StatusApproved)
		if err != nil {
			return err
		}
		for _, nursery := range nurseries {
			if _, err := r.store.Report().CreateNurseryReport(ctx, model.NurseryReport{
				NurseryID: nursery.ID,
				TaskID:    &task.ID,
				Status:    model.StatusDue,
				DueAt:     &dueAt,
			}); err != nil {
				return fmt.Errorf("failed to create nursery report for nursery %d: %w", nursery.ID, err)
			}
		}

		logger.Infow("task created", "task_id", task.ID, "site_reports", len(sites), "nursery_reports", len(nurseries))
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// lost a race with another creator
			return r.store.Task().GetByProjectAndDueAt(ctx, project.ID, dueAt)
		}
		return nil, err
	}

	return task, nil
}
