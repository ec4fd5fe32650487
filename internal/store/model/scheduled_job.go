package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	ScheduledJobTypeTaskDue                = "task-due"
	ScheduledJobTypeReportReminder         = "report-reminder"
	ScheduledJobTypeSiteAndNurseryReminder = "site-and-nursery-reminder"
)

// TaskDefinition is the payload stored with a scheduled job and forwarded to its consumer.
type TaskDefinition struct {
	FrameworkKey string     `json:"frameworkKey"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
}

// ScheduledJob is a unit of work due to run at ExecutionTime.
// A soft-deleted row has been claimed by a dispatcher; restoring it makes it claimable again.
type ScheduledJob struct {
	gorm.Model
	Type           string         `gorm:"type:VARCHAR(50);not null"`
	ExecutionTime  time.Time      `gorm:"not null;index"`
	TaskDefinition TaskDefinition `gorm:"serializer:json;type:text"`
}

type ScheduledJobList []ScheduledJob

func (s ScheduledJob) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}
