package service

import "gastoscan/internal/models"

// TaxEstimator back-computes the subtotal/tax breakdown from the total when
// the extraction did not supply one, assuming the national VAT (IGV) is
// included in the total.
type TaxEstimator struct {
	rate float64
}

func NewTaxEstimator(rate float64) *TaxEstimator {
	return &TaxEstimator{rate: rate}
}

// Estimate fills totals in place. It only acts when the subtotal is absent
// or no tax lines were supplied, and never rewrites upstream values.
func (e *TaxEstimator) Estimate(totals *models.Totals) {
	if totals.Total <= 0 {
		return
	}
	if totals.Subtotal != nil && len(totals.Taxes) > 0 {
		return
	}

	if totals.Subtotal == nil {
		subtotal := round2(totals.Total / (1 + e.rate))
		totals.Subtotal = &subtotal
	}
	if len(totals.Taxes) == 0 {
		totals.Taxes = []models.TaxLine{{
			Name:   "IGV",
			Rate:   e.rate * 100,
			Amount: round2(totals.Total - *totals.Subtotal),
		}}
	}
}
