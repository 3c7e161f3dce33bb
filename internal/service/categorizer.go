package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"gastoscan/internal/models"

	"go.uber.org/zap"
)

// CategoryStore resolves category names to persisted ids, creating new
// categories on demand. Failures are non-fatal to the pipeline.
type CategoryStore interface {
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
}

// categoryRule maps substring keywords to a taxonomy category. Rules are
// evaluated top-down, first match wins.
type categoryRule struct {
	keywords []string
	category string
}

// hintRules classify the extractor's free-text category hint.
var hintRules = []categoryRule{
	{[]string{"aliment", "comida", "restaurant", "food"}, "Alimentación"},
	{[]string{"transport", "taxi", "movilidad"}, "Transporte"},
	{[]string{"servicio", "luz", "agua", "internet", "telefon"}, "Servicios"},
	{[]string{"entreten", "cine", "ocio"}, "Entretenimiento"},
	{[]string{"educa", "colegio", "curso", "libro"}, "Educación"},
	{[]string{"salud", "farmacia", "medic"}, "Salud"},
	{[]string{"vivienda", "alquiler", "hogar"}, "Vivienda"},
	{[]string{"tecnolog", "software", "computo"}, "Tecnología"},
	{[]string{"impuesto", "tributo", "sunat"}, "Impuestos"},
}

// providerRules classify by merchant name when no hint was extracted.
var providerRules = []categoryRule{
	{[]string{"metro", "tottus", "plaza vea", "wong", "bembos", "kfc", "pizza", "restaur", "market", "super"}, "Alimentación"},
	{[]string{"uber", "cabify", "taxi", "grifo", "shell", "primax", "repsol", "peaje", "gasolina"}, "Transporte"},
	{[]string{"claro", "movistar", "entel", "bitel", "luz del sur", "enel", "sedapal", "internet"}, "Servicios"},
	{[]string{"inkafarma", "mifarma", "farmacia", "botica", "clinica", "clínica", "hospital"}, "Salud"},
	{[]string{"colegio", "universidad", "instituto", "academia"}, "Educación"},
	{[]string{"netflix", "spotify", "cineplanet", "cinemark", "cine"}, "Entretenimiento"},
	{[]string{"sodimac", "promart", "maestro", "inmobiliaria", "hogar"}, "Vivienda"},
	{[]string{"hiraoka", "curacao", "electro", "apple", "samsung", "lenovo"}, "Tecnología"},
	{[]string{"sunat"}, "Impuestos"},
}

const defaultCategory = "Otros"

var errNoCategoryStore = errors.New("no category store configured")

// Categorizer maps extraction output to the expense taxonomy and resolves
// the persisted category id.
type Categorizer struct {
	store  CategoryStore
	logger *zap.Logger
}

func NewCategorizer(store CategoryStore, logger *zap.Logger) *Categorizer {
	return &Categorizer{
		store:  store,
		logger: logger,
	}
}

// Classify picks a category name. The hint (the extractor's own guess)
// wins over the provider name; an unrecognized hint becomes a title-cased
// free-form category rather than being discarded.
func (c *Categorizer) Classify(hint, provider string) string {
	if !models.IsUnknown(hint) {
		if category, ok := matchRules(hintRules, hint); ok {
			return category
		}
		return titleCase(hint)
	}
	if !models.IsUnknown(provider) {
		if category, ok := matchRules(providerRules, provider); ok {
			return category
		}
	}
	return defaultCategory
}

// ResolveID looks the category up by exact name, creating it when absent.
// The returned error is informational: callers keep the record valid with
// a nil id when the store misbehaves.
func (c *Categorizer) ResolveID(ctx context.Context, name string) (*string, error) {
	if c.store == nil {
		return nil, errNoCategoryStore
	}

	existing, err := c.store.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		id := existing.ID.String()
		return &id, nil
	}

	created, err := c.store.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	id := created.ID.String()
	c.logger.Info("Created new expense category", zap.String("name", name), zap.String("id", id))
	return &id, nil
}

func matchRules(rules []categoryRule, text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// titleCase uppercases the first letter of each word, lowercasing the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
