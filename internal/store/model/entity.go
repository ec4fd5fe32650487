package model

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityType tags the polymorphic targets of actions and audit rows.
type EntityType string

const (
	EntityTypeProject       EntityType = "project"
	EntityTypeSite          EntityType = "site"
	EntityTypeNursery       EntityType = "nursery"
	EntityTypeProjectReport EntityType = "project-report"
	EntityTypeSiteReport    EntityType = "site-report"
	EntityTypeNurseryReport EntityType = "nursery-report"

	EntityTypeOrganisation    EntityType = "organisation"
	EntityTypeFinancialReport EntityType = "financial-report"
)

// TrackableEntityTypes are the types whose status changes notify users.
var TrackableEntityTypes = []EntityType{
	EntityTypeProject,
	EntityTypeSite,
	EntityTypeNursery,
	EntityTypeProjectReport,
	EntityTypeSiteReport,
	EntityTypeNurseryReport,
}

// AuditableEntityTypes is the allow-list of types that get an AuditStatus row on status change.
var AuditableEntityTypes = []EntityType{
	EntityTypeProject,
	EntityTypeSite,
	EntityTypeNursery,
	EntityTypeProjectReport,
	EntityTypeSiteReport,
	EntityTypeNurseryReport,
	EntityTypeOrganisation,
	EntityTypeFinancialReport,
}

func (t EntityType) String() string {
	return string(t)
}

func (t EntityType) IsTrackable() bool {
	return containsType(TrackableEntityTypes, t)
}

func (t EntityType) IsAuditable() bool {
	return containsType(AuditableEntityTypes, t)
}

// IsReport is true for the three task-bound report types. Financial reports are not task-bound.
func (t EntityType) IsReport() bool {
	switch t {
	case EntityTypeProjectReport, EntityTypeSiteReport, EntityTypeNurseryReport:
		return true
	default:
		return false
	}
}

func containsType(types []EntityType, t EntityType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// EntityRef is a typed reference to any row that can be targeted by an action or audited.
type EntityRef struct {
	Type EntityType
	ID   uint
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// StatusSubject is implemented by every model whose status changes are processed by the workflow engine.
type StatusSubject interface {
	Ref() EntityRef
	EntityUUID() uuid.UUID
	CurrentStatus() Status
	FeedbackText() string
	FeedbackFieldIDs() []string
}

// NamedSubject is implemented by non-report entities that carry a display name.
type NamedSubject interface {
	DisplayName() string
}

// TaskReport is implemented by reports attached to a task.
type TaskReport interface {
	ParentTaskID() *uint
}
