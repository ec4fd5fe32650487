package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type Site interface {
	Create(ctx context.Context, site model.Site) (*model.Site, error)
	ListByProject(ctx context.Context, projectID uint, statuses ...model.Status) ([]model.Site, error)
}

type SiteStore struct {
	db *gorm.DB
}

var _ Site = (*SiteStore)(nil)

func NewSiteStore(db *gorm.DB) Site {
	return &SiteStore{db: db}
}

func (s *SiteStore) Create(ctx context.Context, site model.Site) (*model.Site, error) {
	if site.UUID == uuid.Nil {
		site.UUID = uuid.New()
	}
	if err := getDB(ctx, s.db).Create(&site).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *SiteStore) ListByProject(ctx context.Context, projectID uint, statuses ...model.Status) ([]model.Site, error) {
	var sites []model.Site
	tx := getDB(ctx, s.db).Where("project_id = ?", projectID).Order("id")
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	if err := tx.Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

type Nursery interface {
	Create(ctx context.Context, nursery model.Nursery) (*model.Nursery, error)
	ListByProject(ctx context.Context, projectID uint, statuses ...model.Status) ([]model.Nursery, error)
}

type NurseryStore struct {
	db *gorm.DB
}

var _ Nursery = (*NurseryStore)(nil)

func NewNurseryStore(db *gorm.DB) Nursery {
	return &NurseryStore{db: db}
}

func (n *NurseryStore) Create(ctx context.Context, nursery model.Nursery) (*model.Nursery, error) {
	if nursery.UUID == uuid.Nil {
		nursery.UUID = uuid.New()
	}
	if err := getDB(ctx, n.db).Create(&nursery).Error; err != nil {
		return nil, err
	}
	return &nursery, nil
}

func (n *NurseryStore) ListByProject(ctx context.Context, projectID uint, statuses ...model.Status) ([]model.Nursery, error) {
	var nurseries []model.Nursery
	tx := getDB(ctx, n.db).Where("project_id = ?", projectID).Order("id")
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	if err := tx.Find(&nurseries).Error; err != nil {
		return nil, err
	}
	return nurseries, nil
}
