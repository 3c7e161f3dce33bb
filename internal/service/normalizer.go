package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gastoscan/internal/models"
)

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	ymdDateRe = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
)

// ParseAmount converts a locale-ambiguous amount string into a float.
// Currency tokens and symbols are stripped first; then the decimal
// separator is disambiguated by the relative position of the last dot and
// the last comma. Anything unparseable normalizes to 0.
func ParseAmount(s string) float64 {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0
	}

	for _, token := range []string{"US$", "us$", "S/", "s/"} {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == '$' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cleaned)

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		// European style: dots group thousands, comma is the decimal mark.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// NormalizeDate canonicalizes a date string to YYYY-MM-DD. Day-first and
// year-first orderings with slash or dash separators are accepted; any
// other shape yields "" and callers substitute the current date.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if isoDateRe.MatchString(s) {
		return s
	}
	if m := dmyDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	}
	if m := ymdDateRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
	}
	return ""
}

// DetectCurrency resolves a free-form currency indicator to PEN or USD.
// Documents without an explicit indicator are assumed to be in soles.
func DetectCurrency(s string) models.Currency {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "USD"), strings.Contains(upper, "US$"), strings.Contains(upper, "$"):
		return models.CurrencyUSD
	case strings.Contains(upper, "PEN"), strings.Contains(upper, "S/"), strings.Contains(upper, "SOLES"):
		return models.CurrencyPEN
	default:
		return models.CurrencyPEN
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
