package service

import (
	"math"

	"gastoscan/internal/models"

	"go.uber.org/zap"
)

// Reconciler merges the vision model's extraction with the OCR fallback's
// under a fill-only policy: OCR values only land in fields the model left
// empty or unknown. The one exception is the total override below.
type Reconciler struct {
	// overrideThreshold is the relative difference between the two totals
	// above which the OCR total replaces the model's. OCR has better digit
	// fidelity than a generative model, so when the two diverge hard the
	// OCR reading is trusted.
	overrideThreshold float64
	logger            *zap.Logger
}

func NewReconciler(overrideThreshold float64, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		overrideThreshold: overrideThreshold,
		logger:            logger,
	}
}

// NeedFallback reports whether the OCR extractor should run at all. It is a
// pure predicate over the primary result so it can be tested without
// invoking any extractor.
func NeedFallback(primary *models.RawExtraction, hasImage bool) bool {
	if !hasImage {
		return false
	}
	if primary == nil {
		return true
	}
	return models.IsUnknown(primary.Proveedor) ||
		primary.FechaEmision == "" ||
		ParseAmount(primary.MontoTotal.String()) == 0 ||
		models.IsUnknown(primary.NumeroDocumento)
}

// Merge combines both extractions. Either argument may be nil.
func (r *Reconciler) Merge(primary, fallback *models.RawExtraction) *models.RawExtraction {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}

	merged := *primary

	fillString(&merged.Proveedor, fallback.Proveedor)
	fillString(&merged.RUCProveedor, fallback.RUCProveedor)
	fillString(&merged.FechaEmision, fallback.FechaEmision)
	fillString(&merged.Moneda, fallback.Moneda)
	fillString(&merged.NumeroDocumento, fallback.NumeroDocumento)
	fillString(&merged.CategoriaGasto, fallback.CategoriaGasto)
	if merged.Observaciones == "" {
		merged.Observaciones = fallback.Observaciones
	}
	if merged.Text == "" {
		merged.Text = fallback.Text
	}

	primaryTotal := ParseAmount(primary.MontoTotal.String())
	ocrTotal := ParseAmount(fallback.MontoTotal.String())
	if primaryTotal == 0 && ocrTotal > 0 {
		merged.MontoTotal = fallback.MontoTotal
	} else if primaryTotal > 0 && ocrTotal > 0 {
		relativeDiff := math.Abs(ocrTotal-primaryTotal) / math.Max(1, primaryTotal)
		if relativeDiff > r.overrideThreshold {
			r.logger.Warn("Extractors disagree on total, trusting OCR",
				zap.Float64("primary_total", primaryTotal),
				zap.Float64("ocr_total", ocrTotal),
				zap.Float64("relative_diff", relativeDiff),
			)
			merged.MontoTotal = fallback.MontoTotal
			merged.Moneda = fallback.Moneda
		}
	}

	return &merged
}

func fillString(dst *string, src string) {
	if models.IsUnknown(*dst) && !models.IsUnknown(src) {
		*dst = src
	}
}
