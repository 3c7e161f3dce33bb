package service

import (
	"regexp"
	"strings"

	"gastoscan/internal/models"
)

// Heuristics that lift a raw field bag out of recognized text lines. They
// favor precision over recall: a field the rules cannot pin down stays
// empty and the reconciler simply has nothing to fill with.

var (
	spacesRe      = regexp.MustCompile(`\s+`)
	ymdLineRe     = regexp.MustCompile(`(20\d{2})[-/](0[1-9]|1[0-2])[-/](0[1-9]|[12]\d|3[01])`)
	dmyLineRe     = regexp.MustCompile(`(0[1-9]|[12]\d|3[01])[-/](0[1-9]|1[0-2])[-/](20\d{2})`)
	decimalRe     = regexp.MustCompile(`\d+[.,]\d{2}`)
	rucRe         = regexp.MustCompile(`(?:RUC\s*[:#]?\s*)?(\d{11})`)
	seriesRe      = regexp.MustCompile(`[FB][0-9]{3}-[0-9]{5,8}`)
	altSeriesRe   = regexp.MustCompile(`[A-Z][0-9]{3}-[0-9]{5,10}`)
	plainSeriesRe = regexp.MustCompile(`[0-9]{3}-[0-9]{5,8}`)
	companyRe     = regexp.MustCompile(`SAC|SRL|EIRL|S\.A\.C|S\.A\.|\bSA\b`)
)

// parseOCRLines assembles a RawExtraction from cleaned text lines. The
// joined text rides along for audit.
func parseOCRLines(lines []string) *models.RawExtraction {
	return &models.RawExtraction{
		TipoDocumento:   detectTipo(lines),
		Proveedor:       detectProveedor(lines),
		RUCProveedor:    detectRUC(lines),
		FechaEmision:    detectFecha(lines),
		MontoTotal:      models.FlexString(detectTotal(lines)),
		Moneda:          detectMoneda(lines),
		CategoriaGasto:  detectCategoria(lines),
		NumeroDocumento: detectNumero(lines),
		Text:            strings.Join(lines, " \n "),
	}
}

func cleanLines(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return cleaned
}

func detectTipo(lines []string) string {
	joined := strings.ToLower(strings.Join(lines, " "))
	switch {
	case strings.Contains(joined, "factura"):
		return "factura"
	case strings.Contains(joined, "boleta"), strings.Contains(joined, "ticket"):
		return "boleta"
	default:
		return ""
	}
}

func detectFecha(lines []string) string {
	for _, line := range lines {
		if m := ymdLineRe.FindStringSubmatch(line); m != nil {
			return m[1] + "-" + m[2] + "-" + m[3]
		}
		if m := dmyLineRe.FindStringSubmatch(line); m != nil {
			return m[3] + "-" + m[2] + "-" + m[1]
		}
	}
	return ""
}

// detectTotal prefers an amount on a line mentioning TOTAL and falls back
// to the largest decimal amount on the page.
func detectTotal(lines []string) string {
	var maxAmount float64
	var totalAmount string
	for _, line := range lines {
		numbers := decimalRe.FindAllString(line, -1)
		for _, n := range numbers {
			if v := ParseAmount(n); v > maxAmount {
				maxAmount = v
			}
		}
		if strings.Contains(strings.ToUpper(line), "TOTAL") && len(numbers) > 0 {
			totalAmount = formatMoney(ParseAmount(numbers[len(numbers)-1]))
		}
	}
	if totalAmount != "" {
		return totalAmount
	}
	if maxAmount > 0 {
		return formatMoney(maxAmount)
	}
	return ""
}

func detectMoneda(lines []string) string {
	joined := strings.ToUpper(strings.Join(lines, " "))
	switch {
	case strings.Contains(joined, "PEN"), strings.Contains(joined, "S/"):
		return "PEN"
	case strings.Contains(joined, "USD"), strings.Contains(joined, "US$"), strings.Contains(joined, "$"):
		return "USD"
	default:
		return ""
	}
}

func detectRUC(lines []string) string {
	for _, line := range lines {
		if m := rucRe.FindStringSubmatch(strings.ToUpper(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

func detectNumero(lines []string) string {
	for _, line := range lines {
		upper := strings.ToUpper(line)
		if m := seriesRe.FindString(upper); m != "" {
			return m
		}
		if m := altSeriesRe.FindString(upper); m != "" {
			return m
		}
	}
	// plain series like 001-12345
	for _, line := range lines {
		if m := plainSeriesRe.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// detectProveedor looks for a company-name line near the top of the page,
// then for the line just above the RUC mention.
func detectProveedor(lines []string) string {
	top := lines
	if len(top) > 8 {
		top = top[:8]
	}
	for _, line := range top {
		if len(line) < 3 {
			continue
		}
		if companyRe.MatchString(strings.ToUpper(line)) {
			return line
		}
	}
	for i, line := range lines {
		if strings.Contains(strings.ToUpper(line), "RUC") && i > 0 {
			if prev := strings.TrimSpace(lines[i-1]); len(prev) > 3 {
				return prev
			}
		}
	}
	return ""
}

var ocrCategoryRules = []categoryRule{
	{[]string{"rest", "pollo", "pizza", "sandwich", "bembos", "kfc", "comida", "market", "super"}, "alimentación"},
	{[]string{"uber", "taxi", "bus", "peaje", "gasolina", "shell", "grif"}, "transporte"},
	{[]string{"luz", "agua", "internet", "claro", "movistar", "servicio"}, "servicios"},
	{[]string{"cine", "netflix", "spotify", "pub", "bar"}, "entretenimiento"},
	{[]string{"colegio", "universidad", "curso", "libro"}, "educación"},
	{[]string{"farmacia", "clinica", "salud", "medic"}, "salud"},
	{[]string{"alquiler", "inmobiliaria", "hogar", "vivienda"}, "vivienda"},
	{[]string{"laptop", "pc", "celular", "iphone", "samsung", "tecnolog"}, "tecnología"},
}

func detectCategoria(lines []string) string {
	joined := strings.ToLower(strings.Join(lines, " "))
	if category, ok := matchRules(ocrCategoryRules, joined); ok {
		return category
	}
	return ""
}
