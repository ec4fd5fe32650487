package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river"
	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

// failingGenerator succeeds for the first n calls then fails.
type failingGenerator struct {
	delegate service.ReportGenerator
	n        int
	calls    int
}

func (f *failingGenerator) CreateTask(ctx context.Context, project model.Project, dueAt time.Time) (*model.Task, error) {
	f.calls++
	if f.calls > f.n {
		return nil, errors.New("report generation failed")
	}
	return f.delegate.CreateTask(ctx, project, dueAt)
}

var _ = Describe("scheduled job processor", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		queue  *jobs.LocalQueue
		dueAt  time.Time
	)

	BeforeAll(func() {
		gormdb = newTestDB("processor")
		s = store.NewStore(gormdb)
		dueAt = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		queue = jobs.NewLocalQueue()
	})

	AfterEach(func() {
		truncate(gormdb)
	})

	createProject := func(name, framework string, status model.Status) *model.Project {
		p, err := s.Project().Create(context.TODO(), model.Project{Name: name, FrameworkKey: framework, Status: status})
		Expect(err).To(BeNil())
		return p
	}

	Context("task-due", func() {
		It("creates one task per approved project of the framework", func() {
			approved := createProject("approved", model.FrameworkTerrafund, model.StatusApproved)
			createProject("started", model.FrameworkTerrafund, model.StatusStarted)
			createProject("other framework", "ppc", model.StatusApproved)

			_, err := s.Site().Create(context.TODO(), model.Site{Name: "site a", ProjectID: approved.ID, Status: model.StatusApproved})
			Expect(err).To(BeNil())
			_, err = s.Site().Create(context.TODO(), model.Site{Name: "site b", ProjectID: approved.ID, Status: model.StatusStarted})
			Expect(err).To(BeNil())
			_, err = s.Nursery().Create(context.TODO(), model.Nursery{Name: "nursery", ProjectID: approved.ID, Status: model.StatusApproved})
			Expect(err).To(BeNil())

			processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			msg := jobs.ScheduledJobMessage{ID: 1, TaskDefinition: model.TaskDefinition{FrameworkKey: model.FrameworkTerrafund, DueAt: &dueAt}}
			Expect(processor.Process(context.TODO(), model.ScheduledJobTypeTaskDue, msg)).To(BeNil())

			tasks, err := s.Task().List(context.TODO(), store.NewTaskQueryFilter(), store.NewTaskQueryOptions().WithReportStatuses())
			Expect(err).To(BeNil())
			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].ProjectID).To(Equal(approved.ID))
			Expect(tasks[0].Status).To(Equal(model.StatusDue))
			Expect(tasks[0].ProjectReport).NotTo(BeNil())
			Expect(tasks[0].SiteReports).To(HaveLen(1))
			Expect(tasks[0].NurseryReports).To(HaveLen(1))

			// a retry never duplicates tasks
			Expect(processor.Process(context.TODO(), model.ScheduledJobTypeTaskDue, msg)).To(BeNil())
			tasks, err = s.Task().List(context.TODO(), store.NewTaskQueryFilter(), nil)
			Expect(err).To(BeNil())
			Expect(tasks).To(HaveLen(1))
		})

		It("restores the scheduled job when task creation fails", func() {
			createProject("first", model.FrameworkTerrafund, model.StatusApproved)
			createProject("second", model.FrameworkTerrafund, model.StatusApproved)

			job, err := s.ScheduledJob().Create(context.TODO(), model.ScheduledJob{
				Type:           model.ScheduledJobTypeTaskDue,
				ExecutionTime:  dueAt,
				TaskDefinition: model.TaskDefinition{FrameworkKey: model.FrameworkTerrafund, DueAt: &dueAt},
			})
			Expect(err).To(BeNil())
			Expect(s.ScheduledJob().Remove(context.TODO(), job.ID)).To(BeNil())

			generator := &failingGenerator{delegate: service.NewReportGenerationService(s), n: 1}
			processor := service.NewScheduledJobProcessor(s, queue, generator)
			err = processor.Process(context.TODO(), model.ScheduledJobTypeTaskDue, jobs.ScheduledJobMessage{ID: job.ID, TaskDefinition: job.TaskDefinition})
			Expect(err).NotTo(BeNil())

			pending, err := s.ScheduledJob().ListPending(context.TODO())
			Expect(err).To(BeNil())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].ID).To(Equal(job.ID))

			// the retry only creates the missing task
			processor = service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			Expect(processor.Process(context.TODO(), model.ScheduledJobTypeTaskDue, jobs.ScheduledJobMessage{ID: job.ID, TaskDefinition: job.TaskDefinition})).To(BeNil())
			tasks, err := s.Task().List(context.TODO(), nil, nil)
			Expect(err).To(BeNil())
			Expect(tasks).To(HaveLen(2))
		})

		It("restores the scheduled job when the job context is cancelled", func() {
			createProject("approved", model.FrameworkTerrafund, model.StatusApproved)

			job, err := s.ScheduledJob().Create(context.TODO(), model.ScheduledJob{
				Type:           model.ScheduledJobTypeTaskDue,
				ExecutionTime:  dueAt,
				TaskDefinition: model.TaskDefinition{FrameworkKey: model.FrameworkTerrafund, DueAt: &dueAt},
			})
			Expect(err).To(BeNil())
			Expect(s.ScheduledJob().Remove(context.TODO(), job.ID)).To(BeNil())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			err = processor.Process(ctx, model.ScheduledJobTypeTaskDue, jobs.ScheduledJobMessage{ID: job.ID, TaskDefinition: job.TaskDefinition})
			Expect(err).NotTo(BeNil())

			pending, err := s.ScheduledJob().ListPending(context.TODO())
			Expect(err).To(BeNil())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].ID).To(Equal(job.ID))
		})
	})

	Context("reminders", func() {
		It("sends one terrafund report reminder for projects with sites or nurseries", func() {
			withSite := createProject("with site", model.FrameworkTerrafund, model.StatusApproved)
			_, err := s.Site().Create(context.TODO(), model.Site{Name: "site", ProjectID: withSite.ID})
			Expect(err).To(BeNil())
			withNursery := createProject("with nursery", model.FrameworkTerrafund, model.StatusApproved)
			_, err = s.Nursery().Create(context.TODO(), model.Nursery{Name: "nursery", ProjectID: withNursery.ID})
			Expect(err).To(BeNil())
			createProject("bare", model.FrameworkTerrafund, model.StatusApproved)

			processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			msg := jobs.ScheduledJobMessage{ID: 1, TaskDefinition: model.TaskDefinition{FrameworkKey: model.FrameworkTerrafund}}
			Expect(processor.Process(context.TODO(), model.ScheduledJobTypeReportReminder, msg)).To(BeNil())

			msgs := queue.Drain()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0]).To(Equal(jobs.TerrafundReportReminderArgs{ProjectIDs: []uint{withSite.ID, withNursery.ID}}))
			Expect(msgs[0].(river.JobArgsWithInsertOpts).InsertOpts().Queue).To(Equal(jobs.EmailQueue))
		})

		It("sends one site and nursery reminder", func() {
			withSite := createProject("with site", model.FrameworkTerrafund, model.StatusApproved)
			_, err := s.Site().Create(context.TODO(), model.Site{Name: "site", ProjectID: withSite.ID})
			Expect(err).To(BeNil())

			processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			msg := jobs.ScheduledJobMessage{ID: 1, TaskDefinition: model.TaskDefinition{FrameworkKey: model.FrameworkTerrafund}}
			Expect(processor.Process(context.TODO(), model.ScheduledJobTypeSiteAndNurseryReminder, msg)).To(BeNil())

			msgs := queue.Drain()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0]).To(Equal(jobs.TerrafundSiteAndNurseryReminderArgs{ProjectIDs: []uint{withSite.ID}}))
		})

		It("ignores other frameworks", func() {
			p := createProject("ppc", "ppc", model.StatusApproved)
			_, err := s.Site().Create(context.TODO(), model.Site{Name: "site", ProjectID: p.ID})
			Expect(err).To(BeNil())

			processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			msg := jobs.ScheduledJobMessage{ID: 1, TaskDefinition: model.TaskDefinition{FrameworkKey: "ppc"}}
			Expect(processor.Process(context.TODO(), model.ScheduledJobTypeReportReminder, msg)).To(BeNil())
			Expect(queue.Drain()).To(BeEmpty())
		})
	})

	It("ignores unknown job names", func() {
		processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
		Expect(processor.Process(context.TODO(), "workday-reminder", jobs.ScheduledJobMessage{ID: 1})).To(BeNil())
		Expect(queue.Drain()).To(BeEmpty())
	})

	Context("end to end", func() {
		var now time.Time

		BeforeEach(func() {
			now = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
		})

		dispatchAndProcess := func(frameworkKey string) ([]uint, int) {
			job, err := s.ScheduledJob().Create(context.TODO(), model.ScheduledJob{
				Type:           model.ScheduledJobTypeReportReminder,
				ExecutionTime:  now.Add(-time.Minute),
				TaskDefinition: model.TaskDefinition{FrameworkKey: frameworkKey},
			})
			Expect(err).To(BeNil())

			dispatcher := service.NewScheduledJobDispatcher(s, queue).WithClock(func() time.Time { return now })
			n, err := dispatcher.Dispatch(context.TODO())
			Expect(err).To(BeNil())
			Expect(n).To(Equal(1))

			processor := service.NewScheduledJobProcessor(s, queue, service.NewReportGenerationService(s))
			for _, args := range queue.Drain() {
				scheduled := args.(jobs.ScheduledArgs)
				Expect(processor.Process(context.TODO(), scheduled.Kind(), scheduled.Message())).To(BeNil())
			}

			pending, err := s.ScheduledJob().ListPending(context.TODO())
			Expect(err).To(BeNil())
			for _, p := range pending {
				Expect(p.ID).NotTo(Equal(job.ID))
			}

			emails := queue.Drain()
			if len(emails) == 0 {
				return nil, 0
			}
			reminder, ok := emails[0].(jobs.TerrafundReportReminderArgs)
			Expect(ok).To(BeTrue())
			return reminder.ProjectIDs, len(emails)
		}

		It("sends the terrafund reminder and consumes the job", func() {
			p := createProject("P", model.FrameworkTerrafund, model.StatusApproved)
			_, err := s.Site().Create(context.TODO(), model.Site{Name: "site", ProjectID: p.ID})
			Expect(err).To(BeNil())

			ids, count := dispatchAndProcess(model.FrameworkTerrafund)
			Expect(count).To(Equal(1))
			Expect(ids).To(ContainElement(p.ID))
		})

		It("consumes a ppc reminder without sending email", func() {
			p := createProject("P", "ppc", model.StatusApproved)
			_, err := s.Site().Create(context.TODO(), model.Site{Name: "site", ProjectID: p.ID})
			Expect(err).To(BeNil())

			_, count := dispatchAndProcess("ppc")
			Expect(count).To(Equal(0))
		})
	})
})
