package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.uber.org/zap"

	"gastoscan/internal/models"
	"gastoscan/pkg/cache"
)

var _ = Describe("ExpenseService", func() {
	var (
		primary  *mockExtractor
		fallback *mockExtractor
		store    *cache.MemoryStore
		catStore *mockCategoryStore
		svc      *ExpenseService
		content  []byte
		meta     DocumentMeta
	)

	newService := func() *ExpenseService {
		logger := zap.NewNop()
		return NewExpenseService(
			primary,
			fallback,
			NewCacheGate(store, time.Hour, logger),
			NewReconciler(0.4, logger),
			NewCategorizer(catStore, logger),
			NewTaxEstimator(0.18),
			NewValidator(0.02),
			logger,
		)
	}

	BeforeEach(func() {
		primary = &mockExtractor{raw: completeExtraction()}
		fallback = &mockExtractor{raw: completeExtraction()}
		store = cache.NewMemoryStore()
		catStore = newMockCategoryStore()
		svc = newService()
		content = []byte("fake image bytes")
		meta = DocumentMeta{MimeType: "image/jpeg", Filename: "boleta.jpg", SizeBytes: int64(len(content))}
	})

	Describe("Process", func() {
		When("the primary extraction is complete", func() {
			var (
				entry  *models.CacheEntry
				cached bool
			)

			JustBeforeEach(func() {
				entry, cached = svc.Process(context.Background(), content, meta)
			})

			It("does not hit the cache", func() {
				Expect(cached).To(BeFalse())
			})

			It("never invokes the fallback extractor", func() {
				Expect(fallback.callCount()).To(BeZero())
			})

			It("assembles a canonical record from the extraction", func() {
				record := entry.Record
				Expect(record.Type).To(Equal(models.KindReceipt))
				Expect(record.Provider).To(Equal("Supermercados Metro SAC"))
				Expect(record.IssuedAt).To(Equal("2024-03-15"))
				Expect(record.Totals.Total).To(Equal(45.90))
				Expect(record.Totals.Currency).To(Equal(models.CurrencyPEN))
				Expect(record.DocNumber).NotTo(BeNil())
				Expect(*record.DocNumber).To(Equal("B001-00012345"))
			})

			It("classifies the emitter id as a tax id", func() {
				Expect(entry.Record.Emitter).NotTo(BeNil())
				Expect(entry.Record.Emitter.IDType).NotTo(BeNil())
				Expect(*entry.Record.Emitter.IDType).To(Equal(models.IDTypeTaxID))
			})

			It("estimates the tax breakdown", func() {
				Expect(entry.Record.Totals.Subtotal).NotTo(BeNil())
				Expect(*entry.Record.Totals.Subtotal).To(Equal(38.90))
				Expect(entry.Record.Totals.Taxes).To(HaveLen(1))
			})

			It("resolves a persisted category id", func() {
				Expect(entry.Record.CategoryID).NotTo(BeNil())
				Expect(catStore.created).NotTo(BeEmpty())
			})

			It("builds the Spanish summary line", func() {
				Expect(entry.Record.Summary).To(Equal(
					"Boleta de Supermercados Metro SAC por 45.90 PEN (2024-03-15)"))
			})

			It("attaches the XML projection and the raw field bag", func() {
				Expect(entry.XML).To(HavePrefix("<Expense>"))
				Expect(entry.Record.Raw).NotTo(BeNil())
			})
		})

		When("the same document is processed twice", func() {
			It("serves the second request from the cache", func() {
				first, cachedFirst := svc.Process(context.Background(), content, meta)
				second, cachedSecond := svc.Process(context.Background(), content, meta)

				Expect(cachedFirst).To(BeFalse())
				Expect(cachedSecond).To(BeTrue())
				Expect(primary.callCount()).To(Equal(int32(1)))
				Expect(second.Record).To(Equal(first.Record))
				Expect(second.XML).To(Equal(first.XML))
			})
		})

		When("the extracted RUC has the wrong number of digits", func() {
			BeforeEach(func() {
				raw := completeExtraction()
				raw.RUCProveedor = "2010007097"
				primary.raw = raw
				fallback.raw = raw
			})

			It("still classifies it as a tax id and flags the length", func() {
				entry, _ := svc.Process(context.Background(), content, meta)

				Expect(entry.Record.Emitter.IDType).NotTo(BeNil())
				Expect(*entry.Record.Emitter.IDType).To(Equal(models.IDTypeTaxID))
				Expect(entry.Record.Classification.Anomalies).To(
					ContainElement("emitter tax id is not 11 digits"))
			})
		})

		When("the primary extraction is incomplete", func() {
			BeforeEach(func() {
				primary.raw = &models.RawExtraction{
					TipoDocumento: "boleta",
					Proveedor:     "desconocido",
					MontoTotal:    "45.90",
					FechaEmision:  "2024-03-15",
				}
			})

			It("runs the fallback and merges its fields", func() {
				entry, _ := svc.Process(context.Background(), content, meta)

				Expect(fallback.callCount()).To(Equal(int32(1)))
				Expect(entry.Record.Provider).To(Equal("Supermercados Metro SAC"))
			})
		})

		When("both extractors fail", func() {
			BeforeEach(func() {
				primary.raw = nil
				fallback.raw = nil
			})

			It("still produces a usable default record", func() {
				entry, cached := svc.Process(context.Background(), content, meta)

				Expect(cached).To(BeFalse())
				Expect(fallback.callCount()).To(Equal(int32(1)))

				record := entry.Record
				Expect(record.Type).To(Equal(models.KindReceipt))
				Expect(record.Provider).To(Equal("Unknown"))
				Expect(record.IssuedAt).To(MatchRegexp(`^\d{4}-\d{2}-\d{2}$`))
				Expect(record.Totals.Total).To(BeZero())
				Expect(record.CategoryName).To(Equal("Otros"))
			})

			It("guesses the document kind from the filename", func() {
				meta.Filename = "factura-luz.pdf"
				entry, _ := svc.Process(context.Background(), content, meta)
				Expect(entry.Record.Type).To(Equal(models.KindInvoice))
			})
		})

		When("the cache store is broken", func() {
			BeforeEach(func() {
				store = nil
				svc = NewExpenseService(
					primary, fallback,
					NewCacheGate(&failingStore{err: context.DeadlineExceeded}, time.Hour, zap.NewNop()),
					NewReconciler(0.4, zap.NewNop()),
					NewCategorizer(catStore, zap.NewNop()),
					NewTaxEstimator(0.18),
					NewValidator(0.02),
					zap.NewNop(),
				)
			})

			It("computes the result anyway", func() {
				entry, cached := svc.Process(context.Background(), content, meta)
				Expect(cached).To(BeFalse())
				Expect(entry.Record.Provider).To(Equal("Supermercados Metro SAC"))
			})
		})

		When("two requests for the same document run concurrently", func() {
			It("lets both compute and keeps the last write", func() {
				blocking := &blockingExtractor{
					raw:     completeExtraction(),
					entered: make(chan struct{}, 2),
					release: make(chan struct{}),
				}
				svc = NewExpenseService(
					blocking, fallback,
					NewCacheGate(store, time.Hour, zap.NewNop()),
					NewReconciler(0.4, zap.NewNop()),
					NewCategorizer(catStore, zap.NewNop()),
					NewTaxEstimator(0.18),
					NewValidator(0.02),
					zap.NewNop(),
				)

				var wg sync.WaitGroup
				var cachedCount int32
				for i := 0; i < 2; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						defer GinkgoRecover()
						_, cached := svc.Process(context.Background(), content, meta)
						if cached {
							atomic.AddInt32(&cachedCount, 1)
						}
					}()
				}

				// Both requests are mid-extraction before either writes.
				Eventually(blocking.entered).Should(Receive())
				Eventually(blocking.entered).Should(Receive())
				close(blocking.release)
				wg.Wait()

				Expect(atomic.LoadInt32(&blocking.calls)).To(Equal(int32(2)))
				Expect(atomic.LoadInt32(&cachedCount)).To(BeZero())

				gate := NewCacheGate(store, time.Hour, zap.NewNop())
				Expect(gate.Get(gate.Key(meta, content))).NotTo(BeNil())
			})
		})
	})
})
