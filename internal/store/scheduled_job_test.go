package store_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	st "github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("scheduled job store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
		now    time.Time
	)

	BeforeAll(func() {
		gormDB = newTestDB("scheduled_jobs")
		store = st.NewStore(gormDB)
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		truncate(gormDB)
	})

	createJob := func(jobType string, at time.Time) *model.ScheduledJob {
		job, err := store.ScheduledJob().Create(context.TODO(), model.ScheduledJob{
			Type:           jobType,
			ExecutionTime:  at,
			TaskDefinition: model.TaskDefinition{FrameworkKey: model.FrameworkTerrafund},
		})
		Expect(err).To(BeNil())
		return job
	}

	Context("find due", func() {
		It("returns only unclaimed jobs at or before now, oldest first", func() {
			late := createJob(model.ScheduledJobTypeReportReminder, now.Add(-time.Minute))
			early := createJob(model.ScheduledJobTypeTaskDue, now.Add(-time.Hour))
			exact := createJob(model.ScheduledJobTypeSiteAndNurseryReminder, now)
			createJob(model.ScheduledJobTypeTaskDue, now.Add(time.Second))
			removed := createJob(model.ScheduledJobTypeTaskDue, now.Add(-2*time.Hour))
			Expect(store.ScheduledJob().Remove(context.TODO(), removed.ID)).To(BeNil())

			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())
			due, err := store.ScheduledJob().FindDue(ctx, now)
			Expect(err).To(BeNil())
			_, err = st.Commit(ctx)
			Expect(err).To(BeNil())

			ids := []uint{}
			for _, j := range due {
				ids = append(ids, j.ID)
			}
			Expect(ids).To(Equal([]uint{early.ID, late.ID, exact.ID}))
			Expect(due[0].TaskDefinition.FrameworkKey).To(Equal(model.FrameworkTerrafund))
		})
	})

	Context("remove and restore", func() {
		It("soft deletes and restores a job", func() {
			job := createJob(model.ScheduledJobTypeTaskDue, now.Add(-time.Minute))

			Expect(store.ScheduledJob().Remove(context.TODO(), job.ID)).To(BeNil())

			pending, err := store.ScheduledJob().ListPending(context.TODO())
			Expect(err).To(BeNil())
			Expect(pending).To(BeEmpty())

			removed, err := store.ScheduledJob().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(removed.DeletedAt.Valid).To(BeTrue())

			Expect(store.ScheduledJob().Restore(context.TODO(), job.ID)).To(BeNil())

			pending, err = store.ScheduledJob().ListPending(context.TODO())
			Expect(err).To(BeNil())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].ID).To(Equal(job.ID))
		})

		It("fails to remove an unknown job", func() {
			err := store.ScheduledJob().Remove(context.TODO(), 999)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("discards the removal when the transaction rolls back", func() {
			job := createJob(model.ScheduledJobTypeTaskDue, now.Add(-time.Minute))

			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())
			Expect(store.ScheduledJob().Remove(ctx, job.ID)).To(BeNil())
			_, err = st.Rollback(ctx)
			Expect(err).To(BeNil())

			pending, err := store.ScheduledJob().ListPending(context.TODO())
			Expect(err).To(BeNil())
			Expect(pending).To(HaveLen(1))
		})
	})

	Context("concurrent claimants", func() {
		It("never hands the same row to two transactions", func() {
			if !isPostgres(gormDB) {
				Skip("row locking requires postgres")
			}

			for i := 0; i < 10; i++ {
				createJob(model.ScheduledJobTypeTaskDue, now.Add(-time.Duration(i)*time.Minute))
			}

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				claimed = map[uint]int{}
				start   = make(chan struct{})
			)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					ctx, err := store.NewTransactionContext(context.TODO())
					Expect(err).To(BeNil())
					<-start

					due, err := store.ScheduledJob().FindDue(ctx, now)
					Expect(err).To(BeNil())
					for _, j := range due {
						Expect(store.ScheduledJob().Remove(ctx, j.ID)).To(BeNil())
					}
					// hold the locks while the other claimant runs
					time.Sleep(200 * time.Millisecond)
					_, err = st.Commit(ctx)
					Expect(err).To(BeNil())

					mu.Lock()
					defer mu.Unlock()
					for _, j := range due {
						claimed[j.ID]++
					}
				}()
			}
			close(start)
			wg.Wait()

			Expect(claimed).To(HaveLen(10))
			for id, n := range claimed {
				Expect(n).To(Equal(1), "job %d claimed %d times", id, n)
			}
		})
	})
})
