package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gastoscan/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrimaryExtractor is the vision-model extraction capability.
type PrimaryExtractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) *models.RawExtraction
}

// FallbackExtractor is the OCR extraction capability, invoked only when the
// primary result is unusable.
type FallbackExtractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) *models.RawExtraction
}

// ExpenseService runs the full reconciliation pipeline: cache lookup,
// primary extraction, conditional OCR fallback, merge, normalization,
// categorization, tax estimation, validation and serialization. It always
// returns a best-effort record; no internal failure reaches the caller as
// an error.
type ExpenseService struct {
	primary      PrimaryExtractor
	fallback     FallbackExtractor
	gate         *CacheGate
	reconciler   *Reconciler
	categorizer  *Categorizer
	taxEstimator *TaxEstimator
	validator    *Validator
	logger       *zap.Logger
}

func NewExpenseService(
	primary PrimaryExtractor,
	fallback FallbackExtractor,
	gate *CacheGate,
	reconciler *Reconciler,
	categorizer *Categorizer,
	taxEstimator *TaxEstimator,
	validator *Validator,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		primary:      primary,
		fallback:     fallback,
		gate:         gate,
		reconciler:   reconciler,
		categorizer:  categorizer,
		taxEstimator: taxEstimator,
		validator:    validator,
		logger:       logger,
	}
}

// Process turns document bytes plus request metadata into a memoized
// canonical record. The second return value reports whether the result came
// from the cache.
func (s *ExpenseService) Process(ctx context.Context, content []byte, meta DocumentMeta) (*models.CacheEntry, bool) {
	key := s.gate.Key(meta, content)
	if entry := s.gate.Get(key); entry != nil {
		s.logger.Info("Cache hit, skipping extraction", zap.String("key", key))
		return entry, true
	}

	primary := s.primary.Extract(ctx, content, meta.MimeType)

	var fallback *models.RawExtraction
	if NeedFallback(primary, len(content) > 0) {
		s.logger.Info("Primary extraction incomplete, running OCR fallback")
		fallback = s.fallback.Extract(ctx, content, meta.MimeType)
	}

	merged := s.reconciler.Merge(primary, fallback)
	record := s.buildRecord(ctx, merged, meta)
	s.validator.Validate(record)
	xml := SerializeXML(record)

	if err := s.gate.Put(key, record, xml); err != nil {
		s.logger.Warn("Failed to persist cache entry", zap.String("key", key), zap.Error(err))
	}

	return &models.CacheEntry{
		Key:        key,
		Record:     record,
		XML:        xml,
		TTLSeconds: int64(s.gate.ttl.Seconds()),
		CreatedAt:  time.Now(),
	}, false
}

// Lookup returns the memoized entry for a previously computed key, or nil
// when nothing is cached under it.
func (s *ExpenseService) Lookup(key string) *models.CacheEntry {
	return s.gate.Get(key)
}

// buildRecord normalizes the merged field bag into the canonical shape.
// A nil bag degrades to heuristic defaults: document type guessed from the
// filename, today's date, zero total.
func (s *ExpenseService) buildRecord(ctx context.Context, raw *models.RawExtraction, meta DocumentMeta) *models.CanonicalExpenseRecord {
	if raw == nil {
		s.logger.Warn("Both extractors failed, building record from defaults",
			zap.String("filename", meta.Filename))
		raw = &models.RawExtraction{}
	}

	kind, typeWord := resolveKind(raw.TipoDocumento, meta.Filename)

	issuedAt := NormalizeDate(raw.FechaEmision)
	if issuedAt == "" {
		issuedAt = time.Now().Format("2006-01-02")
	}

	provider := strings.TrimSpace(raw.Proveedor)
	if models.IsUnknown(provider) {
		provider = "Unknown"
	}

	totals := models.Totals{
		Total:    ParseAmount(raw.MontoTotal.String()),
		Currency: DetectCurrency(raw.Moneda),
	}
	s.taxEstimator.Estimate(&totals)

	categoryName := s.categorizer.Classify(raw.CategoriaGasto, provider)
	var categoryID *string
	if id, err := s.categorizer.ResolveID(ctx, categoryName); err != nil {
		s.logger.Warn("Category store unavailable, leaving category id unset",
			zap.String("category", categoryName), zap.Error(err))
	} else {
		categoryID = id
	}

	record := &models.CanonicalExpenseRecord{
		ID:          uuid.New(),
		Type:        kind,
		DocNumber:   optionalString(raw.NumeroDocumento),
		IssuedAt:    issuedAt,
		Provider:    provider,
		Description: strings.TrimSpace(raw.Observaciones),
		Emitter:     buildParty(provider, raw.RUCProveedor),
		Items:       buildItems(raw.Items),
		Totals:      totals,
		Classification: models.Classification{
			DocumentType: typeWord,
			Anomalies:    []string{},
		},
		CategoryName: categoryName,
		CategoryID:   categoryID,
		Summary: fmt.Sprintf("%s de %s por %.2f %s (%s)",
			titleCase(typeWord), provider, totals.Total, totals.Currency, issuedAt),
		Raw: raw,
	}

	return record
}

// resolveKind maps the extracted document type onto the enum, guessing
// from the filename when extraction gave nothing.
func resolveKind(tipo, filename string) (models.DocumentKind, string) {
	lower := strings.ToLower(tipo)
	switch {
	case strings.Contains(lower, "factura"):
		return models.KindInvoice, "factura"
	case strings.Contains(lower, "boleta"), strings.Contains(lower, "ticket"):
		return models.KindReceipt, "boleta"
	}

	if strings.Contains(strings.ToLower(filename), "factura") {
		return models.KindInvoice, "factura"
	}
	return models.KindReceipt, "boleta"
}

// buildParty derives the emitter identity from the extracted tax id.
// Exactly 8 digits is a DNI; anything else in a ruc_proveedor field is
// treated as a RUC, wrong lengths included, so the validator can flag a
// mis-read one.
func buildParty(name, idNumber string) *models.Party {
	party := &models.Party{Name: name}
	if models.IsUnknown(idNumber) {
		return party
	}

	trimmed := strings.TrimSpace(idNumber)
	party.IDNumber = &trimmed

	idType := models.IDTypeTaxID
	if digits := digitsOnlyRe.ReplaceAllString(trimmed, ""); len(digits) == 8 {
		idType = models.IDTypeNationalID
	}
	party.IDType = &idType
	return party
}

func buildItems(rawItems []models.RawItem) []models.LineItem {
	if len(rawItems) == 0 {
		return nil
	}

	items := make([]models.LineItem, 0, len(rawItems))
	for _, ri := range rawItems {
		item := models.LineItem{Description: strings.TrimSpace(ri.Descripcion)}
		if v := ParseAmount(ri.Cantidad.String()); v > 0 {
			item.Quantity = &v
		}
		if v := ParseAmount(ri.PrecioUnitario.String()); v > 0 {
			item.UnitPrice = &v
		}
		if v := ParseAmount(ri.Subtotal.String()); v > 0 {
			item.LineTotal = &v
		}
		items = append(items, item)
	}
	return items
}

func optionalString(s string) *string {
	if models.IsUnknown(s) {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	return &trimmed
}
