package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type Action interface {
	Create(ctx context.Context, action model.Action) (*model.Action, error)
	ListByTarget(ctx context.Context, target model.EntityRef) (model.ActionList, error)
	DeletePendingNotifications(ctx context.Context, target model.EntityRef) (int64, error)
}

type ActionStore struct {
	db *gorm.DB
}

var _ Action = (*ActionStore)(nil)

func NewActionStore(db *gorm.DB) Action {
	return &ActionStore{db: db}
}

func (a *ActionStore) Create(ctx context.Context, action model.Action) (*model.Action, error) {
	if action.UUID == uuid.Nil {
		action.UUID = uuid.New()
	}
	if err := getDB(ctx, a.db).Create(&action).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

func (a *ActionStore) ListByTarget(ctx context.Context, target model.EntityRef) (model.ActionList, error) {
	var actions model.ActionList
	err := getDB(ctx, a.db).
		Where("targetable_type = ? AND targetable_id = ?", target.Type, target.ID).
		Order("id").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// DeletePendingNotifications removes every pending notification targeting the entity.
func (a *ActionStore) DeletePendingNotifications(ctx context.Context, target model.EntityRef) (int64, error) {
	result := getDB(ctx, a.db).
		Where("targetable_type = ? AND targetable_id = ? AND type = ? AND status = ?",
			target.Type, target.ID, model.ActionTypeNotification, model.ActionStatusPending).
		Delete(&model.Action{})
	return result.RowsAffected, result.Error
}
