package store

import (
	"context"
	"errors"
	"time"

	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScheduledJob interface {
	Create(ctx context.Context, job model.ScheduledJob) (*model.ScheduledJob, error)
	Get(ctx context.Context, id uint) (*model.ScheduledJob, error)
	ListPending(ctx context.Context) (model.ScheduledJobList, error)
	FindDue(ctx context.Context, now time.Time) (model.ScheduledJobList, error)
	Remove(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
}

type ScheduledJobStore struct {
	db *gorm.DB
}

// Make sure we conform to ScheduledJob interface
var _ ScheduledJob = (*ScheduledJobStore)(nil)

func NewScheduledJobStore(db *gorm.DB) ScheduledJob {
	return &ScheduledJobStore{db: db}
}

func (s *ScheduledJobStore) Create(ctx context.Context, job model.ScheduledJob) (*model.ScheduledJob, error) {
	if err := getDB(ctx, s.db).Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Get returns the job whether or not it has been claimed.
func (s *ScheduledJobStore) Get(ctx context.Context, id uint) (*model.ScheduledJob, error) {
	var job model.ScheduledJob
	result := getDB(ctx, s.db).Unscoped().First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

func (s *ScheduledJobStore) ListPending(ctx context.Context) (model.ScheduledJobList, error) {
	var jobs model.ScheduledJobList
	if err := getDB(ctx, s.db).Order("execution_time").Order("id").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindDue returns every unclaimed job with execution_time <= now, ordered by execution time.
// Rows are locked FOR UPDATE SKIP LOCKED so concurrent claimants never see the same row;
// the lock only lasts as long as the transaction carried by ctx.
func (s *ScheduledJobStore) FindDue(ctx context.Context, now time.Time) (model.ScheduledJobList, error) {
	var jobs model.ScheduledJobList
	result := getDB(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("execution_time <= ?", now).
		Order("execution_time").
		Order("id").
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

// Remove soft-deletes the job, marking it consumed.
func (s *ScheduledJobStore) Remove(ctx context.Context, id uint) error {
	result := getDB(ctx, s.db).Delete(&model.ScheduledJob{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Restore clears the soft-delete marker so the job can be claimed again.
func (s *ScheduledJobStore) Restore(ctx context.Context, id uint) error {
	result := getDB(ctx, s.db).Unscoped().
		Model(&model.ScheduledJob{}).
		Where("id = ?", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
