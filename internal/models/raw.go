package models

import (
	"encoding/json"
	"strings"
)

// FlexString accepts both JSON strings and numbers. Extractors are loosely
// typed: the same field may come back as "34.50" or 34.5 depending on the
// model's mood.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// RawItem is a single line item as returned by an extractor, before
// normalization.
type RawItem struct {
	Descripcion    string     `json:"descripcion"`
	Cantidad       FlexString `json:"cantidad"`
	PrecioUnitario FlexString `json:"precio_unitario"`
	Subtotal       FlexString `json:"subtotal"`
}

// RawExtraction is the untyped field bag produced by either the vision model
// or the OCR fallback. Field names follow the extraction schema the vision
// prompt asks for. Values are in the document's own language and locale;
// a field may be present but still semantically unknown (see IsUnknown).
// A RawExtraction has no identity beyond the extractor call that produced it.
type RawExtraction struct {
	TipoDocumento   string     `json:"tipo_documento"`
	Proveedor       string     `json:"proveedor"`
	RUCProveedor    string     `json:"ruc_proveedor"`
	FechaEmision    string     `json:"fecha_emision"`
	MontoTotal      FlexString `json:"monto_total"`
	Moneda          string     `json:"moneda"`
	CategoriaGasto  string     `json:"categoria_gasto"`
	NumeroDocumento string     `json:"numero_documento"`
	Items           []RawItem  `json:"items"`
	Observaciones   string     `json:"observaciones"`
	Text            string     `json:"text,omitempty"`
}

// unknownSentinels are values extractors emit when they could not read a
// field but refused to leave it empty.
var unknownSentinels = map[string]struct{}{
	"":            {},
	"desconocido": {},
	"unknown":     {},
	"n/a":         {},
	"—":           {},
}

// IsUnknown reports whether a raw string value carries no information.
// It is the single emptiness test used by the reconciler's fill-only merge.
func IsUnknown(s string) bool {
	_, ok := unknownSentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
