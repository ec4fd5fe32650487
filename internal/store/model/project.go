package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const FrameworkTerrafund = "terrafund"

type Organisation struct {
	gorm.Model
	UUID   uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Name   string
	Status Status `gorm:"type:VARCHAR(50);not null;default:started"`
}

func (o Organisation) Ref() EntityRef             { return EntityRef{Type: EntityTypeOrganisation, ID: o.ID} }
func (o Organisation) EntityUUID() uuid.UUID      { return o.UUID }
func (o Organisation) CurrentStatus() Status      { return o.Status }
func (o Organisation) FeedbackText() string       { return "" }
func (o Organisation) FeedbackFieldIDs() []string { return nil }

type Project struct {
	gorm.Model
	UUID           uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Name           string
	FrameworkKey   string `gorm:"type:VARCHAR(20);index"`
	Status         Status `gorm:"type:VARCHAR(50);not null;default:started"`
	Feedback       *string
	FeedbackFields []string `gorm:"serializer:json;type:text"`
	OrganisationID *uint
	Sites          []Site    `gorm:"foreignKey:ProjectID"`
	Nurseries      []Nursery `gorm:"foreignKey:ProjectID"`
}

type ProjectList []Project

func (p Project) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}

func (p Project) Ref() EntityRef             { return EntityRef{Type: EntityTypeProject, ID: p.ID} }
func (p Project) EntityUUID() uuid.UUID      { return p.UUID }
func (p Project) CurrentStatus() Status      { return p.Status }
func (p Project) FeedbackText() string       { return deref(p.Feedback) }
func (p Project) FeedbackFieldIDs() []string { return p.FeedbackFields }
func (p Project) DisplayName() string        { return p.Name }

type Site struct {
	gorm.Model
	UUID           uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Name           string
	Status         Status `gorm:"type:VARCHAR(50);not null;default:started"`
	Feedback       *string
	FeedbackFields []string `gorm:"serializer:json;type:text"`
	ProjectID      uint     `gorm:"index;not null"`
}

func (s Site) Ref() EntityRef             { return EntityRef{Type: EntityTypeSite, ID: s.ID} }
func (s Site) EntityUUID() uuid.UUID      { return s.UUID }
func (s Site) CurrentStatus() Status      { return s.Status }
func (s Site) FeedbackText() string       { return deref(s.Feedback) }
func (s Site) FeedbackFieldIDs() []string { return s.FeedbackFields }
func (s Site) DisplayName() string        { return s.Name }

type Nursery struct {
	gorm.Model
	UUID           uuid.UUID `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Name           string
	Status         Status `gorm:"type:VARCHAR(50);not null;default:started"`
	Feedback       *string
	FeedbackFields []string `gorm:"serializer:json;type:text"`
	ProjectID      uint     `gorm:"index;not null"`
}

func (n Nursery) Ref() EntityRef             { return EntityRef{Type: EntityTypeNursery, ID: n.ID} }
func (n Nursery) EntityUUID() uuid.UUID      { return n.UUID }
func (n Nursery) CurrentStatus() Status      { return n.Status }
func (n Nursery) FeedbackText() string       { return deref(n.Feedback) }
func (n Nursery) FeedbackFieldIDs() []string { return n.FeedbackFields }
func (n Nursery) DisplayName() string        { return n.Name }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
