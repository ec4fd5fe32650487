package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectReport struct {
	gorm.Model
	UUID                uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Title               *string
	Status              Status  `gorm:"type:VARCHAR(50);not null;default:due"`
	UpdateRequestStatus *Status `gorm:"type:VARCHAR(50)"`
	Feedback            *string
	FeedbackFields      []string `gorm:"serializer:json;type:text"`
	ProjectID           uint     `gorm:"index;not null"`
	TaskID              *uint    `gorm:"index"`
	DueAt               *time.Time
	SubmittedAt         *time.Time
	NothingToReport     bool `gorm:"not null;default:false"`
}

func (r ProjectReport) Ref() EntityRef             { return EntityRef{Type: EntityTypeProjectReport, ID: r.ID} }
func (r ProjectReport) EntityUUID() uuid.UUID      { return r.UUID }
func (r ProjectReport) CurrentStatus() Status      { return r.Status }
func (r ProjectReport) FeedbackText() string       { return deref(r.Feedback) }
func (r ProjectReport) FeedbackFieldIDs() []string { return r.FeedbackFields }
func (r ProjectReport) ParentTaskID() *uint        { return r.TaskID }

type SiteReport struct {
	gorm.Model
	UUID                uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Title               *string
	Status              Status  `gorm:"type:VARCHAR(50);not null;default:due"`
	UpdateRequestStatus *Status `gorm:"type:VARCHAR(50)"`
	Feedback            *string
	FeedbackFields      []string `gorm:"serializer:json;type:text"`
	SiteID              uint     `gorm:"index;not null"`
	Site                *Site    `gorm:"foreignKey:SiteID"`
	TaskID              *uint    `gorm:"index"`
	DueAt               *time.Time
	SubmittedAt         *time.Time
	NothingToReport     bool `gorm:"not null;default:false"`
}

func (r SiteReport) Ref() EntityRef             { return EntityRef{Type: EntityTypeSiteReport, ID: r.ID} }
func (r SiteReport) EntityUUID() uuid.UUID      { return r.UUID }
func (r SiteReport) CurrentStatus() Status      { return r.Status }
func (r SiteReport) FeedbackText() string       { return deref(r.Feedback) }
func (r SiteReport) FeedbackFieldIDs() []string { return r.FeedbackFields }
func (r SiteReport) ParentTaskID() *uint        { return r.TaskID }

type NurseryReport struct {
	gorm.Model
	UUID                uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Title               *string
	Status              Status  `gorm:"type:VARCHAR(50);not null;default:due"`
	UpdateRequestStatus *Status `gorm:"type:VARCHAR(50)"`
	Feedback            *string
	FeedbackFields      []string `gorm:"serializer:json;type:text"`
	NurseryID           uint     `gorm:"index;not null"`
	Nursery             *Nursery `gorm:"foreignKey:NurseryID"`
	TaskID              *uint    `gorm:"index"`
	DueAt               *time.Time
	SubmittedAt         *time.Time
	NothingToReport     bool `gorm:"not null;default:false"`
}

func (r NurseryReport) Ref() EntityRef             { return EntityRef{Type: EntityTypeNurseryReport, ID: r.ID} }
func (r NurseryReport) EntityUUID() uuid.UUID      { return r.UUID }
func (r NurseryReport) CurrentStatus() Status      { return r.Status }
func (r NurseryReport) FeedbackText() string       { return deref(r.Feedback) }
func (r NurseryReport) FeedbackFieldIDs() []string { return r.FeedbackFields }
func (r NurseryReport) ParentTaskID() *uint        { return r.TaskID }

// FinancialReport belongs to an organisation and is never grouped into a task.
type FinancialReport struct {
	gorm.Model
	UUID           uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Title          *string
	Status         Status `gorm:"type:VARCHAR(50);not null;default:due"`
	Feedback       *string
	FeedbackFields []string `gorm:"serializer:json;type:text"`
	OrganisationID uint     `gorm:"index;not null"`
	DueAt          *time.Time
}

func (r FinancialReport) Ref() EntityRef             { return EntityRef{Type: EntityTypeFinancialReport, ID: r.ID} }
func (r FinancialReport) EntityUUID() uuid.UUID      { return r.UUID }
func (r FinancialReport) CurrentStatus() Status      { return r.Status }
func (r FinancialReport) FeedbackText() string       { return deref(r.Feedback) }
func (r FinancialReport) FeedbackFieldIDs() []string { return r.FeedbackFields }
