package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrProjectNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "project")
}

func NewErrEntityNotFound(ref model.EntityRef) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %d not found", ref.Type, ref.ID)}
}

type ErrInvalidStatus struct {
	error
}

func NewErrInvalidStatus(entityType model.EntityType, status model.Status) *ErrInvalidStatus {
	return &ErrInvalidStatus{fmt.Errorf("status %q is not valid for %s", status, entityType)}
}

// ErrInconsistentTaskState is raised when a task that is no longer due still owns unsubmitted reports.
// It denotes a data integrity problem and is never retried.
type ErrInconsistentTaskState struct {
	error
}

func NewErrInconsistentTaskState(taskID uint, statuses []model.Status) *ErrInconsistentTaskState {
	return &ErrInconsistentTaskState{fmt.Errorf("task %d is not due but has unsubmitted reports (statuses: %v)", taskID, statuses)}
}
