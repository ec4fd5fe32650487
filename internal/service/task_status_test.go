package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

func statusPtr(s model.Status) *model.Status {
	return &s
}

var _ = Describe("task status", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		project *model.Project
		site    *model.Site
		srv     *service.TaskStatusService
	)

	BeforeAll(func() {
		gormdb = newTestDB("task_status")
		s = store.NewStore(gormdb)
		srv = service.NewTaskStatusService(s)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		var err error
		project, err = s.Project().Create(context.TODO(), model.Project{Name: "p", Status: model.StatusApproved})
		Expect(err).To(BeNil())
		site, err = s.Site().Create(context.TODO(), model.Site{Name: "s", ProjectID: project.ID, Status: model.StatusApproved})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		truncate(gormdb)
	})

	// createTask stores a task with a project report and one site report per extra status.
	createTask := func(taskStatus model.Status, projectReport model.ProjectReport, siteReports ...model.SiteReport) *model.Task {
		task, err := s.Task().Create(context.TODO(), model.Task{
			ProjectID: project.ID,
			DueAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(len(siteReports)) * time.Hour),
			Status:    taskStatus,
		})
		Expect(err).To(BeNil())

		projectReport.ProjectID = project.ID
		projectReport.TaskID = &task.ID
		_, err = s.Report().CreateProjectReport(context.TODO(), projectReport)
		Expect(err).To(BeNil())

		for _, r := range siteReports {
			r.SiteID = site.ID
			r.TaskID = &task.ID
			_, err = s.Report().CreateSiteReport(context.TODO(), r)
			Expect(err).To(BeNil())
		}
		return task
	}

	taskStatus := func(id uint) model.Status {
		task, err := s.Task().Get(context.TODO(), id, nil)
		Expect(err).To(BeNil())
		return task.Status
	}

	Context("rollup", func() {
		It("approves the task when every report is approved", func() {
			task := createTask(model.StatusAwaitingApproval,
				model.ProjectReport{Status: model.StatusApproved},
				model.SiteReport{Status: model.StatusApproved},
			)

			status, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.StatusApproved))
			Expect(taskStatus(task.ID)).To(Equal(model.StatusApproved))
		})

		It("prefers needs-more-information over awaiting-approval", func() {
			task := createTask(model.StatusAwaitingApproval,
				model.ProjectReport{Status: model.StatusNeedsMoreInformation},
				model.SiteReport{Status: model.StatusAwaitingApproval},
			)

			status, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.StatusNeedsMoreInformation))
		})

		It("treats an update request needing more information as needs-more-information", func() {
			task := createTask(model.StatusAwaitingApproval,
				model.ProjectReport{Status: model.StatusApproved, UpdateRequestStatus: statusPtr(model.StatusNeedsMoreInformation)},
				model.SiteReport{Status: model.StatusApproved},
			)

			status, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			// every report status is approved, which wins first
			Expect(status).To(Equal(model.StatusApproved))

			task = createTask(model.StatusApproved,
				model.ProjectReport{Status: model.StatusAwaitingApproval, UpdateRequestStatus: statusPtr(model.StatusNeedsMoreInformation)},
			)
			status, err = srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.StatusNeedsMoreInformation))
		})

		It("falls back to awaiting-approval when a reworked report awaits its update request review", func() {
			task := createTask(model.StatusNeedsMoreInformation,
				model.ProjectReport{Status: model.StatusNeedsMoreInformation, UpdateRequestStatus: statusPtr(model.StatusAwaitingApproval)},
				model.SiteReport{Status: model.StatusApproved},
			)

			status, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.StatusAwaitingApproval))
			Expect(taskStatus(task.ID)).To(Equal(model.StatusAwaitingApproval))
		})

		It("is idempotent", func() {
			task := createTask(model.StatusAwaitingApproval,
				model.ProjectReport{Status: model.StatusNeedsMoreInformation},
				model.SiteReport{Status: model.StatusApproved},
			)

			first, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			second, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			Expect(second).To(Equal(first))
			Expect(taskStatus(task.ID)).To(Equal(first))
		})

		It("leaves due tasks untouched", func() {
			task := createTask(model.StatusDue,
				model.ProjectReport{Status: model.StatusApproved},
			)

			status, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).To(BeNil())
			Expect(status).To(Equal(model.StatusDue))
			Expect(taskStatus(task.ID)).To(Equal(model.StatusDue))
		})

		It("fails when a non-due task still has a started report", func() {
			task := createTask(model.StatusAwaitingApproval,
				model.ProjectReport{Status: model.StatusApproved},
				model.SiteReport{Status: model.StatusStarted},
			)

			_, err := srv.Rollup(context.TODO(), task.ID)
			Expect(err).NotTo(BeNil())
			var inconsistent *service.ErrInconsistentTaskState
			Expect(errors.As(err, &inconsistent)).To(BeTrue())
			Expect(taskStatus(task.ID)).To(Equal(model.StatusAwaitingApproval))
		})
	})

	Context("reconcile", func() {
		It("repairs due tasks whose reports were all submitted", func() {
			approved := createTask(model.StatusDue,
				model.ProjectReport{Status: model.StatusApproved},
			)
			pending := createTask(model.StatusDue,
				model.ProjectReport{Status: model.StatusAwaitingApproval},
				model.SiteReport{Status: model.StatusApproved},
			)
			unsubmitted := createTask(model.StatusDue,
				model.ProjectReport{Status: model.StatusApproved},
				model.SiteReport{Status: model.StatusDue},
				model.SiteReport{Status: model.StatusStarted},
			)

			updated, err := srv.ReconcileDueTasks(context.TODO())
			Expect(err).To(BeNil())
			Expect(updated).To(Equal(map[model.Status]int{
				model.StatusApproved:         1,
				model.StatusAwaitingApproval: 1,
			}))

			Expect(taskStatus(approved.ID)).To(Equal(model.StatusApproved))
			Expect(taskStatus(pending.ID)).To(Equal(model.StatusAwaitingApproval))
			Expect(taskStatus(unsubmitted.ID)).To(Equal(model.StatusDue))

			// a second pass finds nothing left to repair
			updated, err = srv.ReconcileDueTasks(context.TODO())
			Expect(err).To(BeNil())
			Expect(updated).To(BeEmpty())
		})
	})
})
