package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionTypeNotification = "notification"

	ActionStatusPending = "pending"
	ActionStatusDone    = "done"
)

// Action is a notification surfaced to end users in their actions feed.
type Action struct {
	gorm.Model
	UUID           uuid.UUID  `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	TargetableType EntityType `gorm:"type:VARCHAR(50);not null;index:actions_targetable"`
	TargetableID   uint       `gorm:"not null;index:actions_targetable"`
	Type           string     `gorm:"type:VARCHAR(50);not null"`
	Status         string     `gorm:"type:VARCHAR(50);not null"`
	ProjectID      *uint
	OrganisationID *uint
	Title          *string
	Text           *string
}

func (a Action) Target() EntityRef {
	return EntityRef{Type: a.TargetableType, ID: a.TargetableID}
}

type ActionList []Action
