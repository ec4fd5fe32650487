package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type Task interface {
	Create(ctx context.Context, task model.Task) (*model.Task, error)
	Get(ctx context.Context, id uint, opts *TaskQueryOptions) (*model.Task, error)
	GetByProjectAndDueAt(ctx context.Context, projectID uint, dueAt time.Time) (*model.Task, error)
	List(ctx context.Context, filter *TaskQueryFilter, opts *TaskQueryOptions) (model.TaskList, error)
	UpdateStatus(ctx context.Context, id uint, status model.Status) error
	BulkUpdateStatus(ctx context.Context, ids []uint, status model.Status) (int64, error)
}

type TaskStore struct {
	db *gorm.DB
}

// Make sure we conform to Task interface
var _ Task = (*TaskStore)(nil)

func NewTaskStore(db *gorm.DB) Task {
	return &TaskStore{db: db}
}

func (t *TaskStore) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	if task.UUID == uuid.Nil {
		task.UUID = uuid.New()
	}
	if err := getDB(ctx, t.db).Create(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &task, nil
}

func (t *TaskStore) Get(ctx context.Context, id uint, opts *TaskQueryOptions) (*model.Task, error) {
	var task model.Task
	tx := getDB(ctx, t.db)
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.First(&task, "tasks.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (t *TaskStore) GetByProjectAndDueAt(ctx context.Context, projectID uint, dueAt time.Time) (*model.Task, error) {
	var task model.Task
	err := getDB(ctx, t.db).
		Where("project_id = ? AND due_at = ?", projectID, dueAt).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (t *TaskStore) List(ctx context.Context, filter *TaskQueryFilter, opts *TaskQueryOptions) (model.TaskList, error) {
	var tasks model.TaskList
	tx := getDB(ctx, t.db).Model(&model.Task{}).Order("tasks.due_at").Order("tasks.id")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (t *TaskStore) UpdateStatus(ctx context.Context, id uint, status model.Status) error {
	result := getDB(ctx, t.db).Model(&model.Task{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (t *TaskStore) BulkUpdateStatus(ctx context.Context, ids []uint, status model.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := getDB(ctx, t.db).Model(&model.Task{}).Where("id IN ?", ids).Update("status", status)
	return result.RowsAffected, result.Error
}
