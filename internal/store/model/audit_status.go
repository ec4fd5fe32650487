package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AuditStatusTypeChangeRequest = "change-request"

// AuditStatus is an append-only record of a status transition and its rationale.
type AuditStatus struct {
	gorm.Model
	UUID          uuid.UUID  `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	AuditableType EntityType `gorm:"type:VARCHAR(50);not null;index:audit_statuses_auditable"`
	AuditableID   uint       `gorm:"not null;index:audit_statuses_auditable"`
	Status        Status     `gorm:"type:VARCHAR(50)"`
	Type          *string    `gorm:"type:VARCHAR(50)"`
	Comment       *string
	CreatedBy     *string
	FirstName     *string
	LastName      *string
}

type AuditStatusList []AuditStatus
