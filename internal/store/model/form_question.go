package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormQuestion maps the identifiers used in feedback fields to their labels.
type FormQuestion struct {
	gorm.Model
	UUID  uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Label string
}
