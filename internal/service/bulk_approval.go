package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
)

const unnamedReport = "Unnamed report"

type BulkApprovalReport struct {
	UUID            uuid.UUID        `json:"uuid"`
	Name            string           `json:"name"`
	Type            model.EntityType `json:"type"`
	SubmittedAt     *time.Time       `json:"submittedAt"`
	Status          model.Status     `json:"status"`
	NothingToReport bool             `json:"nothingToReport"`
}

type BulkApprovalResult struct {
	ProjectUUID         uuid.UUID            `json:"projectUuid"`
	ReportsBulkApproval []BulkApprovalReport `json:"reportsBulkApproval"`
}

// BulkApprovalService lists the reports of a project that can be approved in bulk. It never writes.
type BulkApprovalService struct {
	store store.Store
}

func NewBulkApprovalService(s store.Store) *BulkApprovalService {
	return &BulkApprovalService{store: s}
}

// ReportsForBulkApproval returns the site and nursery reports flagged nothing-to-report and not yet approved.
func (b *BulkApprovalService) ReportsForBulkApproval(ctx context.Context, projectUUID uuid.UUID) (*BulkApprovalResult, error) {
	project, err := b.store.Project().GetByUUID(ctx, projectUUID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectUUID)
		}
		return nil, err
	}

	tasks, err := b.store.Task().List(ctx,
		store.NewTaskQueryFilter().ByProjectID(project.ID),
		store.NewTaskQueryOptions().WithReportDetails(),
	)
	if err != nil {
		return nil, err
	}

	result := &BulkApprovalResult{
		ProjectUUID:         project.UUID,
		ReportsBulkApproval: []BulkApprovalReport{},
	}
	for _, task := range tasks {
		for _, r := range task.SiteReports {
			if !eligibleForBulkApproval(r.NothingToReport, r.Status) {
				continue
			}
			parent := ""
			if r.Site != nil {
				parent = r.Site.Name
			}
			result.ReportsBulkApproval = append(result.ReportsBulkApproval, BulkApprovalReport{
				UUID:            r.UUID,
				Name:            reportName(r.Title, parent),
				Type:            model.EntityTypeSiteReport,
				SubmittedAt:     r.SubmittedAt,
				Status:          r.Status,
				NothingToReport: r.NothingToReport,
			})
		}
		for _, r := range task.NurseryReports {
			if !eligibleForBulkApproval(r.NothingToReport, r.Status) {
				continue
			}
			parent := ""
			if r.Nursery != nil {
				parent = r.Nursery.Name
			}
			result.ReportsBulkApproval = append(result.ReportsBulkApproval, BulkApprovalReport{
				UUID:            r.UUID,
				Name:            reportName(r.Title, parent),
				Type:            model.EntityTypeNurseryReport,
				SubmittedAt:     r.SubmittedAt,
				Status:          r.Status,
				NothingToReport: r.NothingToReport,
			})
		}
	}

	return result, nil
}

func eligibleForBulkApproval(nothingToReport bool, status model.Status) bool {
	return nothingToReport && status != model.StatusApproved
}

func reportName(title *string, parentName string) string {
	if title != nil && *title != "" {
		return *title
	}
	if parentName != "" {
		return parentName
	}
	return unnamedReport
}
