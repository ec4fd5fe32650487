package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	st "github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("Store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		gormDB = newTestDB("store")
		store = st.NewStore(gormDB)
		Expect(store).ToNot(BeNil())
	})

	AfterAll(func() {
		store.Close()
	})

	Context("transaction", func() {
		It("insert a project successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			project, err := store.Project().Create(ctx, model.Project{Name: "restore the forest", Status: model.StatusStarted})
			Expect(project).ToNot(BeNil())
			Expect(err).To(BeNil())

			// commit
			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from projects;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rollback a project successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			project, err := store.Project().Create(ctx, model.Project{Name: "restore the forest", Status: model.StatusStarted})
			Expect(project).ToNot(BeNil())
			Expect(err).To(BeNil())

			// count in the same transaction
			projects, err := store.Project().List(ctx, st.NewProjectQueryFilter())
			Expect(err).To(BeNil())
			Expect(projects).To(HaveLen(1))

			// rollback
			_, cerr := st.Rollback(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from projects;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})

		AfterEach(func() {
			truncate(gormDB)
		})
	})

	Context("project", func() {
		It("filters by framework, status and sites or nurseries", func() {
			ctx := context.TODO()
			withSite, err := store.Project().Create(ctx, model.Project{Name: "a", FrameworkKey: model.FrameworkTerrafund, Status: model.StatusApproved})
			Expect(err).To(BeNil())
			_, err = store.Site().Create(ctx, model.Site{Name: "site", ProjectID: withSite.ID, Status: model.StatusApproved})
			Expect(err).To(BeNil())

			withNursery, err := store.Project().Create(ctx, model.Project{Name: "b", FrameworkKey: model.FrameworkTerrafund, Status: model.StatusStarted})
			Expect(err).To(BeNil())
			_, err = store.Nursery().Create(ctx, model.Nursery{Name: "nursery", ProjectID: withNursery.ID, Status: model.StatusStarted})
			Expect(err).To(BeNil())

			_, err = store.Project().Create(ctx, model.Project{Name: "c", FrameworkKey: model.FrameworkTerrafund, Status: model.StatusApproved})
			Expect(err).To(BeNil())
			_, err = store.Project().Create(ctx, model.Project{Name: "d", FrameworkKey: "ppc", Status: model.StatusApproved})
			Expect(err).To(BeNil())

			ids, err := store.Project().ListIDs(ctx, st.NewProjectQueryFilter().ByFrameworkKey(model.FrameworkTerrafund).WithSitesOrNurseries())
			Expect(err).To(BeNil())
			Expect(ids).To(Equal([]uint{withSite.ID, withNursery.ID}))

			approved, err := store.Project().List(ctx, st.NewProjectQueryFilter().ByFrameworkKey(model.FrameworkTerrafund).ByStatus(model.StatusApproved))
			Expect(err).To(BeNil())
			Expect(approved).To(HaveLen(2))
		})

		It("returns ErrRecordNotFound for unknown ids", func() {
			_, err := store.Project().Get(context.TODO(), 4242)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		AfterEach(func() {
			truncate(gormDB)
		})
	})
})
