package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task groups the project report and the site/nursery reports generated for one due date.
type Task struct {
	gorm.Model
	UUID           uuid.UUID       `gorm:"type:VARCHAR(36);uniqueIndex;not null"`
	Status         Status          `gorm:"type:VARCHAR(50);not null;default:due"`
	ProjectID      uint            `gorm:"not null;uniqueIndex:tasks_project_id_due_at"`
	DueAt          time.Time       `gorm:"not null;uniqueIndex:tasks_project_id_due_at"`
	ProjectReport  *ProjectReport  `gorm:"foreignKey:TaskID"`
	SiteReports    []SiteReport    `gorm:"foreignKey:TaskID"`
	NurseryReports []NurseryReport `gorm:"foreignKey:TaskID"`
}

type TaskList []Task

func (t Task) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}

// ReportState is the projection of a child report used by the status rollup.
type ReportState struct {
	Ref                 EntityRef
	Status              Status
	UpdateRequestStatus *Status
}

// ReportStates flattens every non-nil child report of the task.
func (t Task) ReportStates() []ReportState {
	states := make([]ReportState, 0, 1+len(t.SiteReports)+len(t.NurseryReports))
	if t.ProjectReport != nil {
		states = append(states, ReportState{Ref: t.ProjectReport.Ref(), Status: t.ProjectReport.Status, UpdateRequestStatus: t.ProjectReport.UpdateRequestStatus})
	}
	for _, r := range t.SiteReports {
		states = append(states, ReportState{Ref: r.Ref(), Status: r.Status, UpdateRequestStatus: r.UpdateRequestStatus})
	}
	for _, r := range t.NurseryReports {
		states = append(states, ReportState{Ref: r.Ref(), Status: r.Status, UpdateRequestStatus: r.UpdateRequestStatus})
	}
	return states
}
