package service

import (
	"math"
	"regexp"

	"gastoscan/internal/models"
)

var digitsOnlyRe = regexp.MustCompile(`\D`)

// Validator runs structural and business checks over an assembled record.
// Checks never fail the pipeline; violations are appended to the record's
// anomaly list, preserving anomalies recorded upstream.
type Validator struct {
	// itemSumTolerance is the relative tolerance between the line-item sum
	// and the document total.
	itemSumTolerance float64
}

func NewValidator(itemSumTolerance float64) *Validator {
	return &Validator{itemSumTolerance: itemSumTolerance}
}

func (v *Validator) Validate(record *models.CanonicalExpenseRecord) {
	record.Classification.Anomalies = append(record.Classification.Anomalies,
		v.checkParty(record.Emitter, "emitter")...)
	record.Classification.Anomalies = append(record.Classification.Anomalies,
		v.checkParty(record.Receiver, "receiver")...)

	if !isoDateRe.MatchString(record.IssuedAt) {
		record.Classification.Anomalies = append(record.Classification.Anomalies, "invalid date")
	}

	if len(record.Items) > 0 {
		var sum float64
		for _, item := range record.Items {
			if item.LineTotal != nil {
				sum += *item.LineTotal
			}
		}
		if record.Totals.Total > 0 {
			relativeDiff := math.Abs(sum-record.Totals.Total) / record.Totals.Total
			if relativeDiff > v.itemSumTolerance {
				record.Classification.Anomalies = append(record.Classification.Anomalies,
					"item sum does not match total")
			}
		} else if sum > 0 {
			record.Classification.Anomalies = append(record.Classification.Anomalies,
				"item sum does not match total")
		}
	}
}

func (v *Validator) checkParty(party *models.Party, label string) []string {
	if party == nil || party.IDType == nil || party.IDNumber == nil {
		return nil
	}

	digits := digitsOnlyRe.ReplaceAllString(*party.IDNumber, "")
	switch *party.IDType {
	case models.IDTypeTaxID:
		if len(digits) != 11 {
			return []string{label + " tax id is not 11 digits"}
		}
	case models.IDTypeNationalID:
		if len(digits) != 8 {
			return []string{label + " national id is not 8 digits"}
		}
	}
	return nil
}
