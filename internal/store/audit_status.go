package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

// AuditStatus is append-only: there is no update or delete.
type AuditStatus interface {
	Create(ctx context.Context, audit model.AuditStatus) (*model.AuditStatus, error)
	ListByAuditable(ctx context.Context, ref model.EntityRef) (model.AuditStatusList, error)
}

type AuditStatusStore struct {
	db *gorm.DB
}

var _ AuditStatus = (*AuditStatusStore)(nil)

func NewAuditStatusStore(db *gorm.DB) AuditStatus {
	return &AuditStatusStore{db: db}
}

func (a *AuditStatusStore) Create(ctx context.Context, audit model.AuditStatus) (*model.AuditStatus, error) {
	if audit.UUID == uuid.Nil {
		audit.UUID = uuid.New()
	}
	if err := getDB(ctx, a.db).Create(&audit).Error; err != nil {
		return nil, err
	}
	return &audit, nil
}

func (a *AuditStatusStore) ListByAuditable(ctx context.Context, ref model.EntityRef) (model.AuditStatusList, error) {
	var audits model.AuditStatusList
	err := getDB(ctx, a.db).
		Where("auditable_type = ? AND auditable_id = ?", ref.Type, ref.ID).
		Order("id").
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}
