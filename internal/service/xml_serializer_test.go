package service

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gastoscan/internal/models"
)

var _ = Describe("SerializeXML", func() {
	It("renders a minimal record with a stable shape", func() {
		record := &models.CanonicalExpenseRecord{
			Type:     models.KindReceipt,
			IssuedAt: "2024-03-05",
			Provider: "Bodega Central",
			Totals:   models.Totals{Total: 100, Currency: models.CurrencyPEN},
			Classification: models.Classification{
				DocumentType: "boleta",
				Anomalies:    []string{},
			},
			CategoryName: "Otros",
			Summary:      "Boleta de Bodega Central por 100.00 PEN (2024-03-05)",
		}

		Expect(SerializeXML(record)).To(Equal(
			"<Expense>" +
				"<Type>RECEIPT</Type>" +
				"<DocNumber/>" +
				"<IssuedAt>2024-03-05</IssuedAt>" +
				"<Provider>Bodega Central</Provider>" +
				"<Description/>" +
				"<Emitter><Name/><IdType/><IdNumber/></Emitter>" +
				"<Totals><Subtotal/><Taxes></Taxes><Total>100.00</Total><Currency>PEN</Currency></Totals>" +
				"<Classification>" +
				"<DocumentType>boleta</DocumentType>" +
				"<Signatures><HasSignature>false</HasSignature><HasStamp>false</HasStamp></Signatures>" +
				"<Anomalies></Anomalies>" +
				"</Classification>" +
				"<CategoryName>Otros</CategoryName>" +
				"<Summary>Boleta de Bodega Central por 100.00 PEN (2024-03-05)</Summary>" +
				"</Expense>",
		))
	})

	It("escapes exactly ampersand, less-than and greater-than", func() {
		record := &models.CanonicalExpenseRecord{
			Type:     models.KindInvoice,
			IssuedAt: "2024-03-05",
			Provider: `Ferretería "López & Hijos" <SAC>`,
			Totals:   models.Totals{Total: 10, Currency: models.CurrencyPEN},
		}

		xml := SerializeXML(record)

		Expect(xml).To(ContainSubstring(`<Provider>Ferretería "López &amp; Hijos" &lt;SAC&gt;</Provider>`))
	})

	It("does not double-escape an ampersand that precedes another entity", func() {
		record := &models.CanonicalExpenseRecord{
			Type:        models.KindReceipt,
			IssuedAt:    "2024-03-05",
			Description: "a & < b",
			Totals:      models.Totals{Total: 1, Currency: models.CurrencyPEN},
		}

		Expect(SerializeXML(record)).To(ContainSubstring("<Description>a &amp; &lt; b</Description>"))
	})

	It("renders items with per-item element order and two-decimal money", func() {
		qty := 2.0
		unit := 9.5
		line := 19.0
		record := &models.CanonicalExpenseRecord{
			Type:     models.KindReceipt,
			IssuedAt: "2024-03-05",
			Items: []models.LineItem{
				{Description: "Arroz 5kg", Quantity: &qty, UnitPrice: &unit, LineTotal: &line},
				{Description: "Bolsa"},
			},
			Totals: models.Totals{Total: 19, Currency: models.CurrencyPEN},
		}

		xml := SerializeXML(record)

		Expect(xml).To(ContainSubstring(
			"<Items>" +
				"<Item><Description>Arroz 5kg</Description><Quantity>2</Quantity><UnitPrice>9.50</UnitPrice><LineTotal>19.00</LineTotal><TaxRate/></Item>" +
				"<Item><Description>Bolsa</Description><Quantity/><UnitPrice/><LineTotal/><TaxRate/></Item>" +
				"</Items>",
		))
	})

	It("renders the full totals breakdown", func() {
		subtotal := 84.75
		record := &models.CanonicalExpenseRecord{
			Type:     models.KindInvoice,
			IssuedAt: "2024-03-05",
			Totals: models.Totals{
				Subtotal: &subtotal,
				Taxes:    []models.TaxLine{{Name: "IGV", Rate: 18, Amount: 15.25}},
				Total:    100,
				Currency: models.CurrencyUSD,
			},
		}

		Expect(SerializeXML(record)).To(ContainSubstring(
			"<Totals>" +
				"<Subtotal>84.75</Subtotal>" +
				"<Taxes><Tax><Name>IGV</Name><Rate>18</Rate><Amount>15.25</Amount></Tax></Taxes>" +
				"<Total>100.00</Total>" +
				"<Currency>USD</Currency>" +
				"</Totals>",
		))
	})

	It("renders optional blocks only when present", func() {
		taxID := models.IDTypeTaxID
		ruc := "20100070970"
		categoryID := "0f8f1c1e-0000-0000-0000-000000000000"
		record := &models.CanonicalExpenseRecord{
			Type:     models.KindInvoice,
			IssuedAt: "2024-03-05",
			Receiver: &models.Party{Name: "ACME SAC", IDType: &taxID, IDNumber: &ruc},
			Payment:  &models.Payment{Method: "efectivo"},
			Totals:   models.Totals{Total: 50, Currency: models.CurrencyPEN},
			Classification: models.Classification{
				DocumentType: "factura",
				Anomalies:    []string{"invalid date"},
			},
			CategoryID: &categoryID,
		}

		xml := SerializeXML(record)

		Expect(xml).To(ContainSubstring("<Receiver><Name>ACME SAC</Name><IdType>TAX_ID</IdType><IdNumber>20100070970</IdNumber></Receiver>"))
		Expect(xml).To(ContainSubstring("<Payment><Method>efectivo</Method></Payment>"))
		Expect(xml).To(ContainSubstring("<Anomalies><Anomaly>invalid date</Anomaly></Anomalies>"))
		Expect(xml).To(ContainSubstring("<CategoryId>" + categoryID + "</CategoryId></Expense>"))
	})

	It("is deterministic for equal input", func() {
		record := validRecord()
		Expect(SerializeXML(record)).To(Equal(SerializeXML(record)))
	})
})
