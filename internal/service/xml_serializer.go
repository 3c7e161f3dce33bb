package service

import (
	"strconv"
	"strings"

	"gastoscan/internal/models"
)

// SerializeXML builds the strict XML projection of a record. Element order
// is fixed, text content escapes exactly <, > and & (no attributes are ever
// emitted), and absent scalar fields render as self-closing empty elements
// so consumers see a stable shape.
func SerializeXML(record *models.CanonicalExpenseRecord) string {
	var b xmlBuilder

	b.open("Expense")
	b.elem("Type", string(record.Type))
	b.optElem("DocNumber", record.DocNumber)
	b.elem("IssuedAt", record.IssuedAt)
	b.elem("Provider", record.Provider)
	b.elem("Description", record.Description)

	writeParty(&b, "Emitter", record.Emitter)
	if record.Receiver != nil {
		writeParty(&b, "Receiver", record.Receiver)
	}

	if len(record.Items) > 0 {
		b.open("Items")
		for _, item := range record.Items {
			b.open("Item")
			b.elem("Description", item.Description)
			b.optFloatElem("Quantity", item.Quantity)
			b.optMoneyElem("UnitPrice", item.UnitPrice)
			b.optMoneyElem("LineTotal", item.LineTotal)
			b.optFloatElem("TaxRate", item.TaxRate)
			b.close("Item")
		}
		b.close("Items")
	}

	b.open("Totals")
	b.optMoneyElem("Subtotal", record.Totals.Subtotal)
	b.open("Taxes")
	for _, tax := range record.Totals.Taxes {
		b.open("Tax")
		b.elem("Name", tax.Name)
		b.elem("Rate", formatFloat(tax.Rate))
		b.elem("Amount", formatMoney(tax.Amount))
		b.close("Tax")
	}
	b.close("Taxes")
	b.elem("Total", formatMoney(record.Totals.Total))
	b.elem("Currency", string(record.Totals.Currency))
	b.close("Totals")

	if record.Payment != nil {
		b.open("Payment")
		b.elem("Method", record.Payment.Method)
		b.close("Payment")
	}

	b.open("Classification")
	b.elem("DocumentType", record.Classification.DocumentType)
	b.open("Signatures")
	b.elem("HasSignature", strconv.FormatBool(record.Classification.Signatures.HasSignature))
	b.elem("HasStamp", strconv.FormatBool(record.Classification.Signatures.HasStamp))
	b.close("Signatures")
	b.open("Anomalies")
	for _, anomaly := range record.Classification.Anomalies {
		b.elem("Anomaly", anomaly)
	}
	b.close("Anomalies")
	b.close("Classification")

	b.elem("CategoryName", record.CategoryName)
	b.elem("Summary", record.Summary)
	if record.CategoryID != nil {
		b.elem("CategoryId", *record.CategoryID)
	}
	b.close("Expense")

	return b.String()
}

func writeParty(b *xmlBuilder, name string, party *models.Party) {
	b.open(name)
	if party != nil {
		b.elem("Name", party.Name)
		if party.IDType != nil {
			b.elem("IdType", string(*party.IDType))
		} else {
			b.empty("IdType")
		}
		b.optElem("IdNumber", party.IDNumber)
	} else {
		b.empty("Name")
		b.empty("IdType")
		b.empty("IdNumber")
	}
	b.close(name)
}

type xmlBuilder struct {
	sb strings.Builder
}

func (b *xmlBuilder) open(name string) {
	b.sb.WriteString("<" + name + ">")
}

func (b *xmlBuilder) close(name string) {
	b.sb.WriteString("</" + name + ">")
}

func (b *xmlBuilder) empty(name string) {
	b.sb.WriteString("<" + name + "/>")
}

func (b *xmlBuilder) elem(name, value string) {
	if value == "" {
		b.empty(name)
		return
	}
	b.open(name)
	b.sb.WriteString(escapeXML(value))
	b.close(name)
}

func (b *xmlBuilder) optElem(name string, value *string) {
	if value == nil {
		b.empty(name)
		return
	}
	b.elem(name, *value)
}

func (b *xmlBuilder) optMoneyElem(name string, value *float64) {
	if value == nil {
		b.empty(name)
		return
	}
	b.elem(name, formatMoney(*value))
}

func (b *xmlBuilder) optFloatElem(name string, value *float64) {
	if value == nil {
		b.empty(name)
		return
	}
	b.elem(name, formatFloat(*value))
}

func (b *xmlBuilder) String() string {
	return b.sb.String()
}

// escapeXML escapes the three characters the projection allows to be
// escaped, nothing more. Ampersand goes first so it does not re-escape the
// other entities.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
