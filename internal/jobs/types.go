package jobs

import (
	"github.com/riverqueue/river"

	"github.com/wri/terramatch-workflow/internal/store/model"
)

const (
	ScheduledJobsQueue = "scheduled-jobs"
	EmailQueue         = "email"

	// Scheduled jobs are retried by restoring the scheduled_jobs row, not by the queue.
	MaxScheduledJobAttempts = 1
	MaxEmailAttempts        = 3

	KindStatusUpdateEmail               = "statusUpdate"
	KindTerrafundReportReminder         = "terrafundReportReminder"
	KindTerrafundSiteAndNurseryReminder = "terrafundSiteAndNurseryReminder"
)

// ScheduledJobMessage is the payload pushed for a claimed scheduled job.
type ScheduledJobMessage struct {
	ID             uint                 `json:"id"`
	TaskDefinition model.TaskDefinition `json:"taskDefinition"`
}

// ScheduledArgs is implemented by the job args of the scheduled-jobs queue.
type ScheduledArgs interface {
	river.JobArgs
	Message() ScheduledJobMessage
}

type TaskDueArgs struct {
	ScheduledJobMessage
}

func (TaskDueArgs) Kind() string { return model.ScheduledJobTypeTaskDue }

func (TaskDueArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: ScheduledJobsQueue, MaxAttempts: MaxScheduledJobAttempts}
}

func (a TaskDueArgs) Message() ScheduledJobMessage { return a.ScheduledJobMessage }

type ReportReminderArgs struct {
	ScheduledJobMessage
}

func (ReportReminderArgs) Kind() string { return model.ScheduledJobTypeReportReminder }

func (ReportReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: ScheduledJobsQueue, MaxAttempts: MaxScheduledJobAttempts}
}

func (a ReportReminderArgs) Message() ScheduledJobMessage { return a.ScheduledJobMessage }

type SiteAndNurseryReminderArgs struct {
	ScheduledJobMessage
}

func (SiteAndNurseryReminderArgs) Kind() string { return model.ScheduledJobTypeSiteAndNurseryReminder }

func (SiteAndNurseryReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: ScheduledJobsQueue, MaxAttempts: MaxScheduledJobAttempts}
}

func (a SiteAndNurseryReminderArgs) Message() ScheduledJobMessage { return a.ScheduledJobMessage }

// ArgsForScheduledJob maps a scheduled job row to the queue message for its type.
// The boolean is false for unknown types.
func ArgsForScheduledJob(job model.ScheduledJob) (ScheduledArgs, bool) {
	msg := ScheduledJobMessage{ID: job.ID, TaskDefinition: job.TaskDefinition}
	switch job.Type {
	case model.ScheduledJobTypeTaskDue:
		return TaskDueArgs{msg}, true
	case model.ScheduledJobTypeReportReminder:
		return ReportReminderArgs{msg}, true
	case model.ScheduledJobTypeSiteAndNurseryReminder:
		return SiteAndNurseryReminderArgs{msg}, true
	default:
		return nil, false
	}
}

// StatusUpdateEmailArgs asks the email service to notify about an entity status change.
type StatusUpdateEmailArgs struct {
	Type model.EntityType `json:"type"`
	ID   uint             `json:"id"`
}

func (StatusUpdateEmailArgs) Kind() string { return KindStatusUpdateEmail }

func (StatusUpdateEmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: EmailQueue, MaxAttempts: MaxEmailAttempts}
}

type TerrafundReportReminderArgs struct {
	ProjectIDs []uint `json:"projectIds"`
}

func (TerrafundReportReminderArgs) Kind() string { return KindTerrafundReportReminder }

func (TerrafundReportReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: EmailQueue, MaxAttempts: MaxEmailAttempts}
}

type TerrafundSiteAndNurseryReminderArgs struct {
	ProjectIDs []uint `json:"projectIds"`
}

func (TerrafundSiteAndNurseryReminderArgs) Kind() string { return KindTerrafundSiteAndNurseryReminder }

func (TerrafundSiteAndNurseryReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: EmailQueue, MaxAttempts: MaxEmailAttempts}
}
