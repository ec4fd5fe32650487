package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/wri/terramatch-workflow/internal/auth"
	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("entity status", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		queue  *jobs.LocalQueue
		sink   *testSink
		srv    *service.EntityStatusService
	)

	BeforeAll(func() {
		gormdb = newTestDB("entity_status")
		s = store.NewStore(gormdb)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		queue = jobs.NewLocalQueue()
		sink = &testSink{}
		srv = service.NewEntityStatusService(s, service.NewStatusUpdateService(s, queue, sink))
	})

	AfterEach(func() {
		truncate(gormdb)
	})

	It("persists the status and runs the side effects", func() {
		project, err := s.Project().Create(context.TODO(), model.Project{Name: "p"})
		Expect(err).To(BeNil())

		feedback := "add a budget"
		subject, err := srv.UpdateStatus(context.TODO(), service.StatusChange{
			Type:     model.EntityTypeProject,
			ID:       project.ID,
			Status:   model.StatusNeedsMoreInformation,
			Feedback: &feedback,
		}, &auth.User{Email: "admin@wri.org"})
		Expect(err).To(BeNil())
		Expect(subject.CurrentStatus()).To(Equal(model.StatusNeedsMoreInformation))

		stored, err := s.Project().Get(context.TODO(), project.ID)
		Expect(err).To(BeNil())
		Expect(stored.Status).To(Equal(model.StatusNeedsMoreInformation))
		Expect(*stored.Feedback).To(Equal(feedback))

		audits, err := s.AuditStatus().ListByAuditable(context.TODO(), project.Ref())
		Expect(err).To(BeNil())
		Expect(audits).To(HaveLen(1))
		Expect(*audits[0].Comment).To(Equal("Request More Information on the following fields: . Feedback: add a budget"))

		Expect(queue.Drain()).To(HaveLen(1))
		Expect(sink.Events).To(HaveLen(1))
	})

	It("rejects statuses outside the truth set of the entity", func() {
		project, err := s.Project().Create(context.TODO(), model.Project{Name: "p"})
		Expect(err).To(BeNil())

		_, err = srv.UpdateStatus(context.TODO(), service.StatusChange{
			Type:   model.EntityTypeProject,
			ID:     project.ID,
			Status: model.StatusDue,
		}, nil)
		var invalid *service.ErrInvalidStatus
		Expect(errors.As(err, &invalid)).To(BeTrue())

		stored, err := s.Project().Get(context.TODO(), project.ID)
		Expect(err).To(BeNil())
		Expect(stored.Status).To(Equal(model.StatusStarted))
	})

	It("returns not found for missing entities", func() {
		_, err := srv.UpdateStatus(context.TODO(), service.StatusChange{
			Type:   model.EntityTypeSite,
			ID:     404,
			Status: model.StatusApproved,
		}, nil)
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})

	It("queues no email when the status change is rolled back", func() {
		project, err := s.Project().Create(context.TODO(), model.Project{Name: "p", Status: model.StatusApproved})
		Expect(err).To(BeNil())
		site, err := s.Site().Create(context.TODO(), model.Site{Name: "s", ProjectID: project.ID})
		Expect(err).To(BeNil())
		task, err := s.Task().Create(context.TODO(), model.Task{
			ProjectID: project.ID,
			DueAt:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			Status:    model.StatusAwaitingApproval,
		})
		Expect(err).To(BeNil())
		report, err := s.Report().CreateProjectReport(context.TODO(), model.ProjectReport{
			ProjectID: project.ID,
			TaskID:    &task.ID,
			Status:    model.StatusAwaitingApproval,
		})
		Expect(err).To(BeNil())
		_, err = s.Report().CreateSiteReport(context.TODO(), model.SiteReport{
			SiteID: site.ID,
			TaskID: &task.ID,
			Status: model.StatusStarted,
		})
		Expect(err).To(BeNil())

		_, err = srv.UpdateStatus(context.TODO(), service.StatusChange{
			Type:   model.EntityTypeProjectReport,
			ID:     report.ID,
			Status: model.StatusApproved,
		}, &auth.User{Email: "admin@wri.org"})
		var inconsistent *service.ErrInconsistentTaskState
		Expect(errors.As(err, &inconsistent)).To(BeTrue())

		stored, err := s.Entity().Get(context.TODO(), report.Ref())
		Expect(err).To(BeNil())
		Expect(stored.CurrentStatus()).To(Equal(model.StatusAwaitingApproval))

		audits, err := s.AuditStatus().ListByAuditable(context.TODO(), report.Ref())
		Expect(err).To(BeNil())
		Expect(audits).To(BeEmpty())
		Expect(queue.Drain()).To(BeEmpty())
		Expect(sink.Events).To(BeEmpty())
	})
})
