package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	KindInvoice DocumentKind = "INVOICE"
	KindReceipt DocumentKind = "RECEIPT"
)

type IDType string

const (
	IDTypeTaxID      IDType = "TAX_ID"
	IDTypeNationalID IDType = "NATIONAL_ID"
)

type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
)

// Party identifies the emitter or receiver of a document.
type Party struct {
	Name     string  `json:"name"`
	IDType   *IDType `json:"idType"`
	IDNumber *string `json:"idNumber"`
}

type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	LineTotal   *float64 `json:"lineTotal,omitempty"`
	TaxRate     *float64 `json:"taxRate,omitempty"`
}

type TaxLine struct {
	Name   string  `json:"name"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

type Totals struct {
	Subtotal *float64  `json:"subtotal"`
	Taxes    []TaxLine `json:"taxes"`
	Total    float64   `json:"total"`
	Currency Currency  `json:"currency"`
}

type Signatures struct {
	HasSignature bool `json:"hasSignature"`
	HasStamp     bool `json:"hasStamp"`
}

type Classification struct {
	DocumentType string     `json:"documentType"`
	Signatures   Signatures `json:"signatures"`
	Anomalies    []string   `json:"anomalies"`
}

type Payment struct {
	Method string `json:"method"`
}

// CanonicalExpenseRecord is the single normalized, validated expense
// representation produced by the pipeline. issuedAt always matches
// YYYY-MM-DD and currency is always PEN or USD; everything else is
// best-effort and audited through the retained raw field bag.
type CanonicalExpenseRecord struct {
	ID             uuid.UUID      `json:"id"`
	Type           DocumentKind   `json:"type"`
	DocNumber      *string        `json:"docNumber"`
	IssuedAt       string         `json:"issuedAt"`
	Provider       string         `json:"provider"`
	Description    string         `json:"description"`
	Emitter        *Party         `json:"emitter"`
	Receiver       *Party         `json:"receiver"`
	Items          []LineItem     `json:"items"`
	Totals         Totals         `json:"totals"`
	Payment        *Payment       `json:"payment"`
	Classification Classification `json:"classification"`
	CategoryName   string         `json:"categoryName"`
	CategoryID     *string        `json:"categoryId"`
	Summary        string         `json:"summary"`
	Raw            *RawExtraction `json:"raw"`
}

// CacheEntry is the memoized pipeline result for one content hash, XML
// projection included so a cache hit skips serialization too. Entries are
// written once; the TTL is stored as data and enforcement is left to the
// caller.
type CacheEntry struct {
	Key        string                  `json:"key"`
	Record     *CanonicalExpenseRecord `json:"record"`
	XML        string                  `json:"xml"`
	TTLSeconds int64                   `json:"ttlSeconds"`
	CreatedAt  time.Time               `json:"createdAt"`
}
