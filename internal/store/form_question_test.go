package store_test

import (
	"context"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	st "github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("form question store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		gormDB = newTestDB("form_questions")
		store = st.NewStore(gormDB)
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		truncate(gormDB)
	})

	Context("labels by uuid", func() {
		It("matches ids regardless of their case and keys them as given", func() {
			ctx := context.TODO()
			q, err := store.FormQuestion().Create(ctx, model.FormQuestion{Label: "Trees planted"})
			Expect(err).To(BeNil())

			upper := strings.ToUpper(q.UUID.String())
			labels, err := store.FormQuestion().LabelsByUUID(ctx, []string{upper, q.UUID.String()})
			Expect(err).To(BeNil())
			Expect(labels).To(HaveLen(2))
			Expect(labels[upper]).To(Equal("Trees planted"))
			Expect(labels[q.UUID.String()]).To(Equal("Trees planted"))
		})

		It("ignores malformed and unknown ids", func() {
			ctx := context.TODO()
			q, err := store.FormQuestion().Create(ctx, model.FormQuestion{Label: "Survival rate"})
			Expect(err).To(BeNil())

			labels, err := store.FormQuestion().LabelsByUUID(ctx, []string{"not-a-uuid", uuid.NewString(), q.UUID.String()})
			Expect(err).To(BeNil())
			Expect(labels).To(Equal(map[string]string{q.UUID.String(): "Survival rate"}))
		})

		It("returns an empty map without querying when no id parses", func() {
			labels, err := store.FormQuestion().LabelsByUUID(context.TODO(), []string{"", "nope"})
			Expect(err).To(BeNil())
			Expect(labels).To(BeEmpty())
		})
	})
})
