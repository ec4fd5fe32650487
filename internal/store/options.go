package store

import (
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type ProjectQueryFilter BaseQuerier

func NewProjectQueryFilter() *ProjectQueryFilter {
	return &ProjectQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (pf *ProjectQueryFilter) ByFrameworkKey(key string) *ProjectQueryFilter {
	pf.QueryFn = append(pf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("projects.framework_key = ?", key)
	})
	return pf
}

func (pf *ProjectQueryFilter) ByStatus(status model.Status) *ProjectQueryFilter {
	pf.QueryFn = append(pf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("projects.status = ?", status)
	})
	return pf
}

// WithSitesOrNurseries keeps projects owning at least one live site or nursery.
func (pf *ProjectQueryFilter) WithSitesOrNurseries() *ProjectQueryFilter {
	pf.QueryFn = append(pf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where(
			"(EXISTS (SELECT 1 FROM sites WHERE sites.project_id = projects.id AND sites.deleted_at IS NULL) OR " +
				"EXISTS (SELECT 1 FROM nurseries WHERE nurseries.project_id = projects.id AND nurseries.deleted_at IS NULL))",
		)
	})
	return pf
}

type TaskQueryFilter BaseQuerier

func NewTaskQueryFilter() *TaskQueryFilter {
	return &TaskQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (tf *TaskQueryFilter) ByProjectID(projectID uint) *TaskQueryFilter {
	tf.QueryFn = append(tf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("tasks.project_id = ?", projectID)
	})
	return tf
}

func (tf *TaskQueryFilter) ByStatus(status model.Status) *TaskQueryFilter {
	tf.QueryFn = append(tf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("tasks.status = ?", status)
	})
	return tf
}

type TaskQueryOptions BaseQuerier

func NewTaskQueryOptions() *TaskQueryOptions {
	return &TaskQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

// WithReportStatuses preloads only the columns the status rollup reads.
func (o *TaskQueryOptions) WithReportStatuses() *TaskQueryOptions {
	statusColumns := func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "task_id", "status", "update_request_status")
	}
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("ProjectReport", statusColumns).
			Preload("SiteReports", statusColumns).
			Preload("NurseryReports", statusColumns)
	})
	return o
}

// WithReportDetails preloads full site and nursery reports together with their parent entity.
func (o *TaskQueryOptions) WithReportDetails() *TaskQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("SiteReports", func(db *gorm.DB) *gorm.DB {
			return db.Order("site_reports.id")
		}).Preload("SiteReports.Site").
			Preload("NurseryReports", func(db *gorm.DB) *gorm.DB {
				return db.Order("nursery_reports.id")
			}).Preload("NurseryReports.Nursery")
	})
	return o
}
