package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wri/terramatch-workflow/internal/auth"
	"github.com/wri/terramatch-workflow/internal/handlers/validator"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"go.uber.org/zap"
)

// StatusChange is a request to move an entity to a new status.
type StatusChange struct {
	Type           model.EntityType `validate:"required,entity_type"`
	ID             uint             `validate:"required"`
	Status         model.Status     `validate:"required,entity_status"`
	Feedback       *string
	FeedbackFields []string
}

func (c StatusChange) Ref() model.EntityRef {
	return model.EntityRef{Type: c.Type, ID: c.ID}
}

// EntityStatusService persists status changes and runs their side effects in the same transaction.
type EntityStatusService struct {
	store     store.Store
	updates   *StatusUpdateService
	validator *validator.Validator
}

func NewEntityStatusService(s store.Store, updates *StatusUpdateService) *EntityStatusService {
	v := validator.NewValidator()
	v.Register(validator.NewStatusChangeValidationRules()...)
	return &EntityStatusService{store: s, updates: updates, validator: v}
}

func (e *EntityStatusService) UpdateStatus(ctx context.Context, change StatusChange, actor *auth.User) (model.StatusSubject, error) {
	if err := e.validator.Struct(change); err != nil {
		zap.S().Named("entity_status").Debugw("status change rejected", "entity", change.Ref(), "error", err)
		return nil, NewErrInvalidStatus(change.Type, change.Status)
	}

	var subject model.StatusSubject
	err := withTransaction(ctx, e.store, func(ctx context.Context) error {
		err := e.store.Entity().UpdateStatus(ctx, change.Ref(), store.StatusUpdate{
			Status:         change.Status,
			Feedback:       change.Feedback,
			FeedbackFields: change.FeedbackFields,
		})
		if err != nil {
			return err
		}

		subject, err = e.store.Entity().Get(ctx, change.Ref())
		if err != nil {
			return err
		}

		return e.updates.Handle(ctx, subject, actor)
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrEntityNotFound(change.Ref())
		}
		return nil, fmt.Errorf("failed to update status of %s: %w", change.Ref(), err)
	}

	return subject, nil
}
