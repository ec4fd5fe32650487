package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	ScheduledJob() ScheduledJob
	Project() Project
	Site() Site
	Nursery() Nursery
	Task() Task
	Report() Report
	Entity() Entity
	Action() Action
	AuditStatus() AuditStatus
	FormQuestion() FormQuestion
	Close() error
}

type DataStore struct {
	db           *gorm.DB
	scheduledJob ScheduledJob
	project      Project
	site         Site
	nursery      Nursery
	task         Task
	report       Report
	entity       Entity
	action       Action
	auditStatus  AuditStatus
	formQuestion FormQuestion
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		scheduledJob: NewScheduledJobStore(db),
		project:      NewProjectStore(db),
		site:         NewSiteStore(db),
		nursery:      NewNurseryStore(db),
		task:         NewTaskStore(db),
		report:       NewReportStore(db),
		entity:       NewEntityStore(db),
		action:       NewActionStore(db),
		auditStatus:  NewAuditStatusStore(db),
		formQuestion: NewFormQuestionStore(db),
		db:           db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) ScheduledJob() ScheduledJob {
	return s.scheduledJob
}

func (s *DataStore) Project() Project {
	return s.project
}

func (s *DataStore) Site() Site {
	return s.site
}

func (s *DataStore) Nursery() Nursery {
	return s.nursery
}

func (s *DataStore) Task() Task {
	return s.task
}

func (s *DataStore) Report() Report {
	return s.report
}

func (s *DataStore) Entity() Entity {
	return s.entity
}

func (s *DataStore) Action() Action {
	return s.action
}

func (s *DataStore) AuditStatus() AuditStatus {
	return s.auditStatus
}

func (s *DataStore) FormQuestion() FormQuestion {
	return s.formQuestion
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// getDB returns the transaction carried by ctx, if any, or the base connection.
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
