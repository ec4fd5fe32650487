package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type Project interface {
	Create(ctx context.Context, project model.Project) (*model.Project, error)
	Get(ctx context.Context, id uint) (*model.Project, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error)
	ListIDs(ctx context.Context, filter *ProjectQueryFilter) ([]uint, error)
}

type ProjectStore struct {
	db *gorm.DB
}

// Make sure we conform to Project interface
var _ Project = (*ProjectStore)(nil)

func NewProjectStore(db *gorm.DB) Project {
	return &ProjectStore{db: db}
}

func (p *ProjectStore) Create(ctx context.Context, project model.Project) (*model.Project, error) {
	if project.UUID == uuid.Nil {
		project.UUID = uuid.New()
	}
	if err := getDB(ctx, p.db).Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &project, nil
}

func (p *ProjectStore) Get(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := getDB(ctx, p.db).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (p *ProjectStore) GetByUUID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := getDB(ctx, p.db).First(&project, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (p *ProjectStore) List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error) {
	var projects model.ProjectList
	tx := getDB(ctx, p.db).Model(&model.Project{}).Order("projects.id")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (p *ProjectStore) ListIDs(ctx context.Context, filter *ProjectQueryFilter) ([]uint, error) {
	var ids []uint
	tx := getDB(ctx, p.db).Model(&model.Project{}).Order("projects.id")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Pluck("projects.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
