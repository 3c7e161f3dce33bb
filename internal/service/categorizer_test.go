package service

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gastoscan/internal/models"
)

var _ = Describe("Categorizer", func() {
	var (
		store       *mockCategoryStore
		categorizer *Categorizer
	)

	BeforeEach(func() {
		store = newMockCategoryStore()
		categorizer = NewCategorizer(store, zap.NewNop())
	})

	Describe("Classify", func() {
		DescribeTable("mapping hints and providers to the taxonomy",
			func(hint, provider, expected string) {
				Expect(categorizer.Classify(hint, provider)).To(Equal(expected))
			},
			Entry("hint keyword match", "alimentación", "", "Alimentación"),
			Entry("hint matches on a stem", "comida rapida", "", "Alimentación"),
			Entry("hint beats the provider", "transporte", "Inkafarma", "Transporte"),
			Entry("provider rule when hint is empty", "", "UBER PERU SAC", "Transporte"),
			Entry("provider rule when hint is a sentinel", "desconocido", "Cineplanet", "Entretenimiento"),
			Entry("pharmacy provider", "", "BOTICAS INKAFARMA", "Salud"),
			Entry("tax authority provider", "", "SUNAT", "Impuestos"),
			Entry("nothing recognizable", "", "Negocio Sin Rubro", "Otros"),
			Entry("both unknown", "n/a", "", "Otros"),
		)

		It("keeps an unmatched hint as a title-cased category of its own", func() {
			Expect(categorizer.Classify("viajes corporativos", "")).To(Equal("Viajes Corporativos"))
		})
	})

	Describe("ResolveID", func() {
		var (
			id  *string
			err error
		)

		JustBeforeEach(func() {
			id, err = categorizer.ResolveID(context.Background(), "Transporte")
		})

		When("the category already exists", func() {
			var existing *models.Category

			BeforeEach(func() {
				existing = &models.Category{ID: uuid.New(), Name: "Transporte"}
				store.categories["Transporte"] = existing
			})

			It("returns the stored id without creating anything", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(id).NotTo(BeNil())
				Expect(*id).To(Equal(existing.ID.String()))
				Expect(store.created).To(BeEmpty())
			})
		})

		When("the category is new", func() {
			It("creates it and returns the new id", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(id).NotTo(BeNil())
				Expect(store.created).To(Equal([]string{"Transporte"}))
			})
		})

		When("the lookup fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("connection refused")
				store.findErr = setupErr
			})

			It("returns the error and no id", func() {
				Expect(err).To(MatchError(setupErr))
				Expect(id).To(BeNil())
			})
		})

		When("the create fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("insert failed")
				store.createErr = setupErr
			})

			It("returns the error and no id", func() {
				Expect(err).To(MatchError(setupErr))
				Expect(id).To(BeNil())
			})
		})

		When("no store is configured", func() {
			BeforeEach(func() {
				categorizer = NewCategorizer(nil, zap.NewNop())
			})

			It("returns an error and no id", func() {
				Expect(err).To(HaveOccurred())
				Expect(id).To(BeNil())
			})
		})
	})
})
